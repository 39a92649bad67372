package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/opsh-lang/opsh/pkg/opsh/value"
)

func num(f float64) value.Value { return &value.Number{Value: f} }
func str(s string) value.Value  { return &value.String{Value: s} }

func proc(name string, cpu float64) value.Value {
	obj := value.NewObject()
	obj.Set("Name", str(name))
	obj.Set("CPU", num(cpu))
	return obj
}

func displays(vals []value.Value) []string {
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		out = append(out, v.Display())
	}
	return out
}

func TestRegistryLookupIsCaseInsensitive(t *testing.T) {
	r := DefaultRegistry()

	for _, name := range []string{"Sort-Object", "sort-object", "SORT-OBJECT"} {
		if _, ok := r.Get(name); !ok {
			t.Errorf("lookup failed for %q", name)
		}
	}
	if _, ok := r.Get("Not-AThing"); ok {
		t.Error("lookup for unknown name should fail")
	}
}

func TestWriteOutput(t *testing.T) {
	cmd := &WriteOutput{}

	// Pipeline input passes through untouched.
	ctx := NewContext([]value.Value{num(1), num(2)})
	out, err := cmd.Run(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"1", "2"}, displays(out)); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}

	// Standalone arguments unroll one level of arrays.
	ctx = NewContext(nil)
	ctx.Args = []value.Value{&value.Array{Elements: []value.Value{num(1), num(2)}}, str("x")}
	out, err = cmd.Run(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"1", "2", "x"}, displays(out)); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestSortObject(t *testing.T) {
	tests := []struct {
		name     string
		input    []value.Value
		params   map[string]value.Value
		args     []value.Value
		expected []string
	}{
		{
			name:     "numbers ascending",
			input:    []value.Value{num(3), num(1), num(2)},
			expected: []string{"1", "2", "3"},
		},
		{
			name:     "descending",
			input:    []value.Value{num(3), num(1), num(2)},
			params:   map[string]value.Value{"Descending": value.TRUE},
			expected: []string{"3", "2", "1"},
		},
		{
			name:     "descending via string",
			input:    []value.Value{num(1), num(2)},
			params:   map[string]value.Value{"Descending": str("true")},
			expected: []string{"2", "1"},
		},
		{
			name:     "strings case-insensitive",
			input:    []value.Value{str("banana"), str("Apple"), str("cherry")},
			expected: []string{"Apple", "banana", "cherry"},
		},
		{
			name:     "nulls first",
			input:    []value.Value{num(1), value.NULL, str("a")},
			expected: []string{"", "1", "a"},
		},
		{
			name:     "numeric strings sort numerically",
			input:    []value.Value{str("10"), str("9"), str("2")},
			expected: []string{"2", "9", "10"},
		},
		{
			name:     "standalone args",
			args:     []value.Value{&value.Array{Elements: []value.Value{num(3), num(1), num(2)}}},
			expected: []string{"1", "2", "3"},
		},
		{
			name:     "by property",
			input:    []value.Value{proc("b", 2), proc("a", 1)},
			params:   map[string]value.Value{"Property": str("Name")},
			expected: []string{"@{CPU=1; Name=a}", "@{CPU=2; Name=b}"},
		},
		{
			name:     "by positional property with input",
			input:    []value.Value{proc("b", 1), proc("a", 2)},
			args:     []value.Value{str("CPU")},
			expected: []string{"@{CPU=1; Name=b}", "@{CPU=2; Name=a}"},
		},
	}

	cmd := &SortObject{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := NewContext(tt.input)
			ctx.Args = tt.args
			for k, v := range tt.params {
				ctx.SetParam(k, v)
			}

			out, err := cmd.Run(ctx, nil)
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tt.expected, displays(out)); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSortObjectBadSwitch(t *testing.T) {
	cmd := &SortObject{}
	ctx := NewContext([]value.Value{num(1)})
	ctx.SetParam("Descending", str("maybe"))

	if _, err := cmd.Run(ctx, nil); err == nil {
		t.Fatal("expected error for bad boolean value")
	}
}

func TestSelectObject(t *testing.T) {
	input := []value.Value{proc("chrome", 15.7), proc("pwsh", 12.1)}

	ctx := NewContext(input)
	ctx.Args = []value.Value{str("name")}

	out, err := (&SelectObject{}).Run(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 objects, got %d", len(out))
	}

	obj := out[0].(*value.Object)
	if obj.Len() != 1 {
		t.Fatalf("expected 1 property, got %d", obj.Len())
	}
	// Requested casing wins on the projected object.
	keys := obj.Keys()
	if keys[0] != "name" {
		t.Errorf("expected requested casing %q, got %q", "name", keys[0])
	}
	if v, _ := obj.Get("Name"); v.Display() != "chrome" {
		t.Errorf("expected chrome, got %v", v)
	}
}

func TestSelectObjectAbsentPropertyOmitted(t *testing.T) {
	ctx := NewContext([]value.Value{proc("chrome", 15.7)})
	ctx.SetParam("Property", &value.Array{Elements: []value.Value{str("Name"), str("Missing")}})

	out, err := (&SelectObject{}).Run(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	obj := out[0].(*value.Object)
	if obj.Len() != 1 {
		t.Errorf("absent property should be omitted, got %d properties", obj.Len())
	}
}

func TestSelectObjectNonObjectPassthrough(t *testing.T) {
	ctx := NewContext([]value.Value{num(7), proc("chrome", 15.7), str("plain")})
	ctx.SetParam("Property", str("Name"))

	out, err := (&SelectObject{}).Run(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 3 {
		t.Fatalf("expected 3 items, got %d", len(out))
	}
	if _, ok := out[0].(*value.Number); !ok {
		t.Errorf("non-object item should pass through unchanged, got %T", out[0])
	}
	if obj, ok := out[1].(*value.Object); !ok || obj.Len() != 1 {
		t.Errorf("object item should be projected to Name only, got %v", out[1])
	}
	if _, ok := out[2].(*value.String); !ok {
		t.Errorf("non-object item should pass through unchanged, got %T", out[2])
	}
}

func TestSelectObjectFirstLast(t *testing.T) {
	input := []value.Value{num(1), num(2), num(3), num(4)}

	ctx := NewContext(input)
	ctx.SetParam("First", num(2))
	out, err := (&SelectObject{}).Run(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"1", "2"}, displays(out)); diff != "" {
		t.Errorf("-First mismatch (-want +got):\n%s", diff)
	}

	ctx = NewContext(input)
	ctx.SetParam("Last", num(2))
	out, err = (&SelectObject{}).Run(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"3", "4"}, displays(out)); diff != "" {
		t.Errorf("-Last mismatch (-want +got):\n%s", diff)
	}
}

func TestGroupObject(t *testing.T) {
	input := []value.Value{str("a"), str("b"), str("a"), str("a")}

	out, err := (&GroupObject{}).Run(NewContext(input), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(out))
	}

	first := out[0].(*value.Object)
	name, _ := first.Get("Name")
	count, _ := first.Get("Count")
	group, _ := first.Get("Group")
	if name.Display() != "a" || count.Display() != "3" {
		t.Errorf("group a wrong: name=%s count=%s", name.Display(), count.Display())
	}
	if arr, ok := group.(*value.Array); !ok || len(arr.Elements) != 3 {
		t.Errorf("group members wrong: %v", group)
	}
}

func TestGroupObjectByPropertyNoElement(t *testing.T) {
	input := []value.Value{proc("chrome", 1), proc("chrome", 2), proc("pwsh", 3)}

	ctx := NewContext(input)
	ctx.SetParam("Property", str("Name"))
	ctx.SetParam("NoElement", value.TRUE)

	out, err := (&GroupObject{}).Run(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(out))
	}

	first := out[0].(*value.Object)
	if _, ok := first.Get("Group"); ok {
		t.Error("-NoElement should drop the Group member")
	}
	name, _ := first.Get("Name")
	if name.Display() != "chrome" {
		t.Errorf("expected chrome first, got %s", name.Display())
	}
}

func TestGetProcess(t *testing.T) {
	out, err := (&GetProcess{}).Run(NewContext(nil), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 5 {
		t.Fatalf("expected 5 processes, got %d", len(out))
	}

	ctx := NewContext(nil)
	ctx.SetParam("Name", str("ch"))
	out, err = (&GetProcess{}).Run(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 {
		t.Fatalf("expected 1 match for 'ch', got %d", len(out))
	}
	name, _ := out[0].(*value.Object).Get("Name")
	if name.Display() != "chrome" {
		t.Errorf("expected chrome, got %s", name.Display())
	}
}

func TestFileCommands(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "notes.txt")

	// Set-Content writes lines.
	ctx := NewContext(nil)
	ctx.SetParam("Path", str(file))
	ctx.SetParam("Value", str("hello"))
	if _, err := (&SetContent{}).Run(ctx, nil); err != nil {
		t.Fatal(err)
	}

	// Test-Path sees it.
	ctx = NewContext(nil)
	ctx.Args = []value.Value{str(file)}
	out, err := (&TestPath{}).Run(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !out[0].Truthy() {
		t.Fatal("Test-Path should report true for an existing file")
	}

	// Get-Content reads it back line by line.
	ctx = NewContext(nil)
	ctx.Args = []value.Value{str(file)}
	out, err = (&GetContent{}).Run(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"hello"}, displays(out)); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}

	// -Raw keeps the trailing newline.
	ctx = NewContext(nil)
	ctx.Args = []value.Value{str(file)}
	ctx.SetParam("Raw", value.TRUE)
	out, err = (&GetContent{}).Run(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	if out[0].Display() != "hello\n" {
		t.Errorf("expected raw content with newline, got %q", out[0].Display())
	}

	// Get-ChildItem lists it with metadata.
	ctx = NewContext(nil)
	ctx.SetParam("Path", str(dir))
	out, err = (&GetChildItem{}).Run(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(out))
	}
	entry := out[0].(*value.Object)
	if name, _ := entry.Get("Name"); name.Display() != "notes.txt" {
		t.Errorf("entry name wrong: %s", name.Display())
	}
	if _, ok := entry.Get("Size"); !ok {
		t.Error("entry should carry a Size property")
	}
	if isDir, _ := entry.Get("IsDirectory"); isDir.Truthy() {
		t.Error("file should not be a directory")
	}

	// Remove-Item deletes it.
	ctx = NewContext(nil)
	ctx.Args = []value.Value{str(file)}
	if _, err := (&RemoveItem{}).Run(ctx, nil); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(file); !os.IsNotExist(err) {
		t.Fatal("file should be gone")
	}
}

func TestNewItemDirectory(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "a", "b")

	ctx := NewContext(nil)
	ctx.SetParam("Path", str(target))
	ctx.SetParam("ItemType", str("Directory"))

	out, err := (&NewItem{}).Run(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(target)
	if err != nil || !info.IsDir() {
		t.Fatalf("directory not created: %v", err)
	}
	if isDir, _ := out[0].(*value.Object).Get("IsDirectory"); !isDir.Truthy() {
		t.Error("result object should flag IsDirectory")
	}

	// Remove-Item -Recurse clears the tree.
	ctx = NewContext(nil)
	ctx.Args = []value.Value{str(filepath.Join(dir, "a"))}
	ctx.SetParam("Recurse", value.TRUE)
	if _, err := (&RemoveItem{}).Run(ctx, nil); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, "a")); !os.IsNotExist(err) {
		t.Fatal("tree should be gone")
	}
}

func TestNewGuid(t *testing.T) {
	out, err := (&NewGuid{}).Run(NewContext(nil), nil)
	if err != nil {
		t.Fatal(err)
	}
	guid, ok := out[0].(*value.Object).Get("Guid")
	if !ok || len(guid.Display()) != 36 {
		t.Errorf("expected a 36-character guid, got %v", guid)
	}
}

func TestGetDate(t *testing.T) {
	ctx := NewContext(nil)
	ctx.SetParam("Date", str("2026-08-25"))

	out, err := (&GetDate{}).Run(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	obj := out[0].(*value.Object)
	if y, _ := obj.Get("Year"); y.Display() != "2026" {
		t.Errorf("year wrong: %s", y.Display())
	}
	if m, _ := obj.Get("Month"); m.Display() != "8" {
		t.Errorf("month wrong: %s", m.Display())
	}

	ctx = NewContext(nil)
	ctx.SetParam("Date", str("2026-08-25"))
	ctx.SetParam("Format", str("2006/01/02"))
	out, err = (&GetDate{}).Run(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	if out[0].Display() != "2026/08/25" {
		t.Errorf("formatted date wrong: %s", out[0].Display())
	}

	ctx = NewContext(nil)
	ctx.SetParam("Date", str("not a date"))
	if _, err := (&GetDate{}).Run(ctx, nil); err == nil {
		t.Fatal("expected parse error")
	}
}
