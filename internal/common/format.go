package common

import (
	"fmt"
	"strings"
)

// DefaultWidth is the width of report headers and footers
const DefaultWidth = 80

// PrintSeparator prints a separator line with the specified character and width
func PrintSeparator(char string, width int) {
	fmt.Println(strings.Repeat(char, width))
}

// PrintHeader prints a title framed by "=" lines
func PrintHeader(title string, width int) {
	fmt.Println("\n" + strings.Repeat("=", width))
	fmt.Println(title)
	PrintSeparator("=", width)
}

// PrintFooter prints a summary line framed by "=" lines
func PrintFooter(message string, width int) {
	fmt.Println("\n" + strings.Repeat("=", width))
	fmt.Println(message)
	fmt.Println(strings.Repeat("=", width) + "\n")
}

// PrintSection opens a box-drawn sub-section such as a user or account group
func PrintSection(title string, lines ...string) {
	fmt.Printf("\n┌─ %s\n", title)
	for _, l := range lines {
		fmt.Printf("│  %s\n", l)
	}
	PrintBoxSeparator(DefaultWidth - 2)
}

// PrintBoxSeparator prints a box-drawing separator line (for sub-sections)
func PrintBoxSeparator(width int) {
	fmt.Println("├" + strings.Repeat("─", width))
}

// PrintField prints an aligned "Label: value" line
func PrintField(label string, value any) {
	fmt.Printf("%-16s %v\n", label+":", value)
}

// BoxPrefix returns the appropriate box-drawing prefix for list items
func BoxPrefix(isLast bool) string {
	if isLast {
		return "└  "
	}
	return "│  "
}
