package command

import (
	"context"
	"errors"
	"io"
	"os"
	"runtime/debug"

	"golang.org/x/term"

	"github.com/stolasapp/wysiwyg/internal/config"
)

type configKey struct{}

func configFrom(ctx context.Context) (*config.Config, error) {
	cfg, ok := ctx.Value(configKey{}).(*config.Config)
	if !ok {
		return nil, errors.New("config file resolution failed")
	}
	return cfg, nil
}

// prompt writes msg to out when in is an interactive terminal, then reads a
// single line from in.
func prompt(in io.Reader, out io.Writer, msg string) ([]byte, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		if _, err := io.WriteString(out, msg); err != nil {
			return nil, err
		}
	}
	return readLine(in)
}

// cloned from term.readPasswordLine.
func readLine(in io.Reader) ([]byte, error) {
	var buf [1]byte
	var ret []byte

	for {
		n, err := in.Read(buf[:])
		if n > 0 {
			switch buf[0] {
			case '\b':
				if len(ret) > 0 {
					ret = ret[:len(ret)-1]
				}
			case '\n':
				return ret, nil
			case '\r':
				// ignored, \n terminates the line
			default:
				ret = append(ret, buf[0])
			}
			continue
		}
		if err != nil {
			if errors.Is(err, io.EOF) && len(ret) > 0 {
				return ret, nil
			}
			return ret, err
		}
	}
}

func version() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown-dev"
	}
	ver := "unknown"
	dirty := false
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			ver = setting.Value
		case "vcs.modified":
			dirty = setting.Value == "true"
		}
	}
	if dirty {
		ver += "-dev"
	}
	return ver
}
