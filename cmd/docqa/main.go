// Package main is the entry point for the docqa PDF question-answering service.
package main

import (
	_ "go.uber.org/automaxprocs/maxprocs"

	docqa "github.com/kart-io/docqa/internal/docqa"
)

func main() {
	docqa.NewApp().Run()
}
