package main

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/milk9111/blockade/maps"
)

var mapsWatch string

var mapsCmd = &cobra.Command{
	Use:   "maps",
	Short: "List embedded maps or watch a directory for map edits",
	RunE:  runMaps,
}

func init() {
	mapsCmd.Flags().StringVar(&mapsWatch, "watch", "", "Directory to watch; changed specs are re-validated")
}

func runMaps(cmd *cobra.Command, args []string) error {
	for _, name := range maps.List() {
		spec, err := maps.LoadSpec(name)
		if err != nil {
			fmt.Printf("%-12s INVALID: %v\n", name, err)
			continue
		}
		spawn, _ := spec.SpawnNode()
		fmt.Printf("%-12s %dx%d grid, %d holes, spawn %s\n",
			name, spec.Rows, spec.Cols, len(spec.Holes), spawn)
	}

	if mapsWatch == "" {
		return nil
	}

	w, err := maps.NewWatcher(mapsWatch)
	if err != nil {
		return err
	}
	defer w.Close()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	fmt.Printf("watching %s (ctrl-c to stop)\n", mapsWatch)

	for {
		select {
		case path, ok := <-w.Events:
			if !ok {
				return nil
			}
			data, err := os.ReadFile(path)
			if err != nil {
				fmt.Printf("%s: %v\n", path, err)
				continue
			}
			spec, err := maps.Parse(data)
			if err != nil {
				fmt.Printf("%s: %v\n", path, err)
				continue
			}
			if _, err := spec.Build(); err != nil {
				fmt.Printf("%s: %v\n", path, err)
				continue
			}
			fmt.Printf("%s: ok (%dx%d)\n", path, spec.Rows, spec.Cols)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			fmt.Printf("watch error: %v\n", err)
		case <-interrupt:
			return nil
		}
	}
}
