package commands

import (
	"os"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/opsh-lang/opsh/pkg/opsh/value"
)

// GetContent reads a file and emits one String per line; -Raw emits
// the whole file as a single String. -Wait blocks until the file is
// written to again, then reads and emits the updated content.
type GetContent struct{}

func (c *GetContent) Name() string { return "Get-Content" }

func (c *GetContent) Run(ctx *Context, inv Invoker) ([]value.Value, error) {
	path := pathArg(ctx, "")
	if path == "" {
		return nil, invalidOperation("Get-Content requires a path")
	}

	raw, err := ctx.Switch("Raw")
	if err != nil {
		return nil, err
	}
	wait, err := ctx.Switch("Wait")
	if err != nil {
		return nil, err
	}

	if wait {
		if err := awaitWrite(path); err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, invalidOperation("cannot read " + path + ": " + err.Error())
	}

	if raw {
		return []value.Value{&value.String{Value: string(data)}}, nil
	}

	text := strings.TrimSuffix(string(data), "\n")
	if text == "" {
		return nil, nil
	}

	var out []value.Value
	for _, line := range strings.Split(text, "\n") {
		out = append(out, &value.String{Value: strings.TrimSuffix(line, "\r")})
	}
	return out, nil
}

// awaitWrite blocks until the file receives a write or create event.
func awaitWrite(path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return invalidOperation("cannot watch " + path + ": " + err.Error())
	}
	defer watcher.Close()

	if err := watcher.Add(path); err != nil {
		return invalidOperation("cannot watch " + path + ": " + err.Error())
	}

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				return nil
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return invalidOperation("watch failed for " + path + ": " + err.Error())
		}
	}
}
