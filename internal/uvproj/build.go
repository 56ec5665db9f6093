package uvproj

import (
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/rs/zerolog/log"
)

// DefaultUV4 is where the Keil installer puts the IDE executable.
const DefaultUV4 = "C:/Keil_v5/UV4/UV4.exe"

const warningsOnly = 1

// ErrRebuild is returned when UV4 cannot be found or the build fails.
var ErrRebuild = errors.New("unable to rebuild project")

// Rebuilder regenerates a project's build outputs, including its dependency
// trace.
type Rebuilder interface {
	Rebuild(project string) error
}

// UV4 rebuilds projects with the µVision command line.
type UV4 struct {
	// Path is the UV4 executable. When empty, UV4 is looked up on PATH and
	// then at DefaultUV4.
	Path string
}

func (u UV4) executable() (string, error) {
	if u.Path != "" {
		return u.Path, nil
	}
	if p, err := exec.LookPath("UV4"); err == nil {
		return p, nil
	}
	if _, err := os.Stat(DefaultUV4); err == nil {
		return DefaultUV4, nil
	}
	return "", fmt.Errorf("%w: UV4 is not in PATH and %s does not exist", ErrRebuild, DefaultUV4)
}

// Rebuild runs a full rebuild of project.
func (u UV4) Rebuild(project string) error {
	exe, err := u.executable()
	if err != nil {
		return err
	}
	cmd := exec.Command(exe, "-j", "-r", project)
	cmd.Stderr = os.Stderr
	log.Info().Str("rebuild command", cmd.String()).Send()
	err = cmd.Run()
	// UV4 exits with 1 when the build only produced warnings.
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() == warningsOnly {
		log.Warn().Str("project", project).Msg("rebuild finished with warnings")
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrRebuild, project, err)
	}
	return nil
}
