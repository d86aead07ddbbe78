package main

import (
	"flag"
	"fmt"
	"log"
)

// runParams lists every distinct parameter and its shape, then optionally
// saves the initialized weights.
func runParams(args []string) error {
	fs := flag.NewFlagSet("params", flag.ExitOnError)
	mf := addModelFlags(fs)
	save := fs.String("save", "", "Write the weights to this SafeTensors file")
	quiet := fs.Bool("quiet", false, "Only print the total")
	if err := fs.Parse(args); err != nil {
		return err
	}

	model, err := mf.build()
	if err != nil {
		return err
	}

	if !*quiet {
		for _, np := range model.NamedParameters() {
			fmt.Printf("%-48s %v\n", np.Name, np.Param.Shape())
		}
	}
	fmt.Printf("total: %d parameters\n", model.NumParameters())

	if *save != "" {
		if err := model.Save(*save); err != nil {
			return err
		}
		log.Printf("saved weights to %s", *save)
	}
	return nil
}
