package clients

import (
	"os"
	"path/filepath"

	"github.com/fentz26/mcphub/internal/models"
)

// DetectInstalled reports every known client whose config file or its
// parent directory exists, in table order.
func (r *Resolver) DetectInstalled() []models.DetectedClient {
	detected := []models.DetectedClient{}
	for _, kind := range models.AllClientKinds {
		path, err := r.Path(kind)
		if err != nil {
			continue
		}
		hasConfig := isFile(path)
		if !hasConfig && !isDir(filepath.Dir(path)) {
			continue
		}
		detected = append(detected, models.DetectedClient{
			ClientKind:  kind,
			DisplayName: kind.DisplayName(),
			ConfigPath:  path,
			HasConfig:   hasConfig,
		})
	}
	return detected
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
