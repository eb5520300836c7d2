// Package merger maps create-command switches onto the merger configuration
// the engine consumes.
//
// The mapping is two static tables: DisableSwitches (flag → stage) and
// TuningSwitches (flag → option group/key/value). The CLI declares its flags
// from the same tables so names, help text, and behaviour cannot drift apart.
package merger
