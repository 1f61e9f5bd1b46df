package platform

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/aretw0/mycel/pkg/config"
	"github.com/aretw0/mycel/pkg/core"
)

// FindRoot looks upwards from startDir for a content root.
// Indicators are a .mycel.yaml file or a topics directory.
func FindRoot(startDir string) (string, error) {
	abs, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	dir := abs
	for {
		if hasFile(dir, config.FileName) || hasDir(dir, "topics") {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("%w: no %s or topics directory above %s", core.ErrRootNotFound, config.FileName, abs)
}

func hasFile(dir, name string) bool {
	info, err := os.Stat(filepath.Join(dir, name))
	return err == nil && info.Mode().IsRegular()
}

func hasDir(dir, name string) bool {
	info, err := os.Stat(filepath.Join(dir, name))
	return err == nil && info.IsDir()
}
