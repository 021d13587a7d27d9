// lanes.go implements the 'atomicprobe lanes' command.
package main

import (
	"flag"
	"fmt"
	"io"
	"reflect"
	"text/tabwriter"
	"unsafe"

	"github.com/kolkov/atomiclanes/atomic"
)

// laneRow describes where one type lands.
type laneRow struct {
	Type  string `json:"type"`
	Size  int    `json:"size"`
	Align int    `json:"align"`
	Kind  string `json:"kind"`
	Value string `json:"value_lane"`
	Ref   string `json:"ref_lane"`
}

type pair8 struct{ A, B uint32 }

type padded struct {
	A uint8
	B uint32
}

type wide16 struct{ Lo, Hi uint64 }

type wide24 struct{ X, Y, Z uint64 }

// probe builds the row for T. The Ref is taken over a fresh heap object,
// so its lane reflects allocator alignment.
func probe[T any]() laneRow {
	var zero T
	t := reflect.TypeFor[T]()
	return laneRow{
		Type:  t.String(),
		Size:  int(unsafe.Sizeof(zero)),
		Align: int(unsafe.Alignof(zero)),
		Kind:  atomic.KindOf[T]().String(),
		Value: atomic.NewValue(zero).Lane().String(),
		Ref:   atomic.NewRef(new(T)).Lane().String(),
	}
}

// laneTable returns rows for the probed types.
func laneTable() []laneRow {
	return []laneRow{
		probe[bool](),
		probe[int8](),
		probe[uint16](),
		probe[int32](),
		probe[float32](),
		probe[int64](),
		probe[float64](),
		probe[uintptr](),
		probe[*int](),
		probe[unsafe.Pointer](),
		probe[map[string]int](),
		probe[[3]byte](),
		probe[pair8](),
		probe[padded](),
		probe[wide16](),
		probe[wide24](),
		probe[string](),
	}
}

// lanesCommand implements 'atomicprobe lanes [-json]'.
func lanesCommand(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("lanes", flag.ContinueOnError)
	fs.SetOutput(stderr)
	asJSON := fs.Bool("json", false, "print JSON instead of a table")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	rows := laneTable()
	if *asJSON {
		if err := writeJSON(stdout, rows); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	}

	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TYPE\tSIZE\tALIGN\tKIND\tVALUE\tREF")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%s\t%s\n", r.Type, r.Size, r.Align, r.Kind, r.Value, r.Ref)
	}
	if err := tw.Flush(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
