package lutcmd

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"lutgrade/lutfile"
)

// convertFile rewrites src in the format of dest's extension.
func convertFile(src, dest string, force bool) error {
	slog.Info("converting", "from", src, "to", dest)

	if err := checkFile(src, dest, force); err != nil {
		return err
	}
	return lutfile.Convert(src, dest)
}

// checkFile makes sure src is a regular file and that dest is free, unless
// force allows replacing it.
func checkFile(src, dest string, force bool) error {
	srcFileInfo, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("cannot stat source file %q: %w", src, err)
	}
	if !srcFileInfo.Mode().IsRegular() {
		return fmt.Errorf("cannot convert non-regular file %q: %s", srcFileInfo.Name(), srcFileInfo.Mode().String())
	}
	destFileInfo, err := os.Stat(dest)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("cannot stat destination file %q: %w", dest, err)
		}
	} else if !force {
		return fmt.Errorf("destination file already exists: %q", destFileInfo.Name())
	}

	return nil
}
