package elevation

import (
	"fmt"
	"os"
	"os/exec"

	shellquote "github.com/kballard/go-shellquote"
	"github.com/pkg/errors"

	"github.com/forkerproj/forker/internal/forkerr"
)

// askpassEnvVar is the environment variable sudo consults to locate
// its password provider.
const askpassEnvVar = "SUDO_ASKPASS"

// RunWithFixedPassword invokes helper (expected to be sudo) against
// argv, supplying password via an indirect askpass script rather than
// sudo's stdin, per §4.3 step 3. sudo -A reads the script
// asynchronously, after Start returns, so the caller must run the
// returned cleanup only once the process has exited, not right after
// Start.
func RunWithFixedPassword(helper, password string, argv []string, cmdOpts func(*exec.Cmd)) (cmd *exec.Cmd, cleanup func(), err error) {
	script, cleanup, err := writeAskpassScript(password)
	if err != nil {
		return nil, nil, err
	}

	fullArgv := append([]string{helper, "-A"}, argv...)
	cmd = exec.Command(fullArgv[0], fullArgv[1:]...)
	if cmdOpts != nil {
		cmdOpts(cmd)
	}
	if cmd.Env == nil {
		cmd.Env = os.Environ()
	}
	cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", askpassEnvVar, script))

	if err := cmd.Start(); err != nil {
		cleanup()
		return nil, nil, forkerr.Wrap(forkerr.ExecFailed, err)
	}
	return cmd, cleanup, nil
}

// writeAskpassScript writes a tiny shell script to a temp path that
// echoes password to stdout, and returns a cleanup func that unlinks
// it. The script is 0700 so only its owner can read the password.
func writeAskpassScript(password string) (path string, cleanup func(), err error) {
	f, err := os.CreateTemp("", "forker-askpass-*")
	if err != nil {
		return "", nil, errors.Wrap(err, "elevation: create askpass script")
	}
	path = f.Name()

	cleanup = func() { _ = os.Remove(path) }

	script := fmt.Sprintf("#!/bin/sh\nprintf '%%s\\n' %s\n", shellquote.Join(password))
	if _, err := f.WriteString(script); err != nil {
		_ = f.Close()
		cleanup()
		return "", nil, errors.Wrap(err, "elevation: write askpass script")
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", nil, errors.Wrap(err, "elevation: close askpass script")
	}
	if err := os.Chmod(path, 0o700); err != nil {
		cleanup()
		return "", nil, errors.Wrap(err, "elevation: chmod askpass script")
	}

	return path, cleanup, nil
}
