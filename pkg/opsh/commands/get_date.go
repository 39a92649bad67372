package commands

import (
	"time"

	"github.com/araddon/dateparse"

	"github.com/opsh-lang/opsh/pkg/opsh/value"
)

// GetDate emits the current date and time as an object, or parses the
// -Date argument (or first positional) from any common format. -Format
// renders the result as a single String using a Go layout string.
type GetDate struct{}

func (c *GetDate) Name() string { return "Get-Date" }

func (c *GetDate) Run(ctx *Context, inv Invoker) ([]value.Value, error) {
	t := time.Now()

	input := ""
	if v, ok := ctx.Param("Date"); ok {
		input = v.Display()
	} else if len(ctx.Args) > 0 {
		input = ctx.Args[0].Display()
	}

	if input != "" {
		parsed, err := dateparse.ParseAny(input)
		if err != nil {
			return nil, invalidOperation("cannot parse date: " + input)
		}
		t = parsed
	}

	if v, ok := ctx.Param("Format"); ok {
		return []value.Value{&value.String{Value: t.Format(v.Display())}}, nil
	}

	obj := value.NewObject()
	obj.Set("Year", &value.Number{Value: float64(t.Year())})
	obj.Set("Month", &value.Number{Value: float64(t.Month())})
	obj.Set("Day", &value.Number{Value: float64(t.Day())})
	obj.Set("Hour", &value.Number{Value: float64(t.Hour())})
	obj.Set("Minute", &value.Number{Value: float64(t.Minute())})
	obj.Set("Second", &value.Number{Value: float64(t.Second())})
	obj.Set("DayOfWeek", &value.String{Value: t.Weekday().String()})
	obj.Set("DateTime", &value.String{Value: t.Format("2006-01-02 15:04:05")})
	return []value.Value{obj}, nil
}
