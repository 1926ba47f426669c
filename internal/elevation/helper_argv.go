package elevation

import (
	"path/filepath"

	"github.com/forkerproj/forker/internal/descriptor"
)

// HelperArgv builds the full command line to exec when a launch is
// routed through an external privilege-prompting helper
// (pkexec/sudo/doas), inserting the helper's target-user flag when id
// names a specific UID or username. Administrator and
// FixedPasswordSudo requests use the helper's own default target
// (root), so no flag is added for them.
func HelperArgv(helperPath string, id descriptor.Identity, argv []string) []string {
	full := append([]string{helperPath}, helperUserArgs(helperPath, id)...)
	return append(full, argv...)
}

func helperUserArgs(helperPath string, id descriptor.Identity) []string {
	if id.Kind != descriptor.UID && id.Kind != descriptor.Username {
		return nil
	}
	switch filepath.Base(helperPath) {
	case "pkexec":
		return []string{"--user", id.Arg}
	case "sudo":
		if id.Kind == descriptor.UID {
			return []string{"-u", "#" + id.Arg}
		}
		return []string{"-u", id.Arg}
	case "doas":
		return []string{"-u", id.Arg}
	default:
		return nil
	}
}
