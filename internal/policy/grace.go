package policy

// KeepThroughLauncherPolicy is the shipped behaviour: the grace for the app
// just unlocked survives a trip through the launcher and is revoked only when
// a different non-launcher app comes to the foreground.
type KeepThroughLauncherPolicy struct{}

func (KeepThroughLauncherPolicy) Name() string {
	return KeepThroughLauncher
}

func (KeepThroughLauncherPolicy) ShouldRevoke(appID, lastUnlocked string, isLauncher bool) bool {
	return appID != lastUnlocked && !isLauncher
}

// RevokeOnLauncherPolicy additionally revokes the grace whenever the launcher
// comes to the foreground, so A -> Home -> A re-triggers the gate.
type RevokeOnLauncherPolicy struct{}

func (RevokeOnLauncherPolicy) Name() string {
	return RevokeOnLauncher
}

func (RevokeOnLauncherPolicy) ShouldRevoke(appID, lastUnlocked string, isLauncher bool) bool {
	if isLauncher {
		return true
	}
	return appID != lastUnlocked
}

// Ensure both policies implement GracePolicy.
var (
	_ GracePolicy = KeepThroughLauncherPolicy{}
	_ GracePolicy = RevokeOnLauncherPolicy{}
)
