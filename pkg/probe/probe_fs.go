package probe

import (
	"context"
	"os"

	log "github.com/sirupsen/logrus"
)

type filesystemProbe struct {
	path string
}

func (f *filesystemProbe) Exec(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := os.ReadDir(f.path); err != nil {
		return err
	}

	log.WithFields(log.Fields{"kind": "probe", "name": "filesystem", "status": "alive", "path": f.path}).Debug()
	return nil
}
