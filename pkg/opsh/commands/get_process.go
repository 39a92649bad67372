package commands

import (
	"strings"

	"github.com/opsh-lang/opsh/pkg/opsh/value"
)

// processEntry is one row of the mock process table.
type processEntry struct {
	name       string
	id         float64
	cpu        float64
	workingSet float64
}

// processTable is a fixed mock of a process listing, enough to drive
// pipelines without touching the host.
var processTable = []processEntry{
	{name: "System", id: 4, cpu: 0.5, workingSet: 1048576},
	{name: "explorer", id: 1234, cpu: 2.3, workingSet: 52428800},
	{name: "chrome", id: 5678, cpu: 15.7, workingSet: 209715200},
	{name: "code", id: 9012, cpu: 8.2, workingSet: 157286400},
	{name: "pwsh", id: 3456, cpu: 12.1, workingSet: 104857600},
}

// GetProcess emits the mock process table as objects with Name, Id,
// CPU and WorkingSet. -Name filters by case-insensitive substring.
type GetProcess struct{}

func (c *GetProcess) Name() string { return "Get-Process" }

func (c *GetProcess) Run(ctx *Context, inv Invoker) ([]value.Value, error) {
	filter := ""
	if v, ok := ctx.Param("Name"); ok {
		filter = strings.ToLower(v.Display())
	} else if len(ctx.Args) > 0 {
		filter = strings.ToLower(ctx.Args[0].Display())
	}

	var out []value.Value
	for _, p := range processTable {
		if filter != "" && !strings.Contains(strings.ToLower(p.name), filter) {
			continue
		}
		obj := value.NewObject()
		obj.Set("Name", &value.String{Value: p.name})
		obj.Set("Id", &value.Number{Value: p.id})
		obj.Set("CPU", &value.Number{Value: p.cpu})
		obj.Set("WorkingSet", &value.Number{Value: p.workingSet})
		out = append(out, obj)
	}
	return out, nil
}
