package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/keebie/layers"
)

var (
	layerTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	comboStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

// listLayers prints every layer file and its bindings
func listLayers(store *layers.Store, w io.Writer) error {
	list, err := store.List()
	if err != nil {
		return err
	}

	fmt.Fprintln(w, "Available Layers:")
	fmt.Fprintln(w)
	for _, layer := range list {
		fmt.Fprintln(w, layerTitleStyle.Render(layers.FileName(layer.Name)))
		for _, combo := range layer.Combos() {
			fmt.Fprintf(w, "   %s: %s\n", comboStyle.Render(combo), layer.Bindings[combo])
		}
	}
	return nil
}
