package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"projwarp/internal/projection"
)

func main() {
	inverseOnly := flag.Bool("inverse", false, "List only projections with an inverse")
	flag.Parse()

	cat := projection.Default()
	ids := cat.IDs()
	if *inverseOnly {
		ids = cat.InverseIDs()
	}
	if args := flag.Args(); len(args) > 0 {
		ids = args
	}

	for _, id := range ids {
		d, err := cat.Get(id)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		idx, _ := cat.Index(id)
		clip := "none"
		if d.ClipAngle > 0 {
			clip = fmt.Sprintf("%g°", d.ClipAngle)
		}
		inverse := "forward only"
		if cat.SupportsInverse(id) {
			inverse = "inverse"
		}
		fmt.Printf("[%d] %s (%s)\n", idx, d.ID, d.Label)
		fmt.Printf("    family=%s clip=%s %s\n", d.Family, clip, inverse)
		fmt.Printf("    %s\n", d.Description)
		chars, _ := cat.Characteristics(id)
		fmt.Printf("    - %s\n", strings.Join(chars, "\n    - "))
	}
	fmt.Printf("%d projections, %d with inverse\n", len(ids), len(cat.InverseIDs()))
}
