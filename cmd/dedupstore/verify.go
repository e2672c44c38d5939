package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/dedupstore/dedupstore/cmd"
)

// verifyMain walks a chunk store and confirms that every chunk file's
// contents hash to its own filename (Testable Property 4), generalizing
// the hydrator's optional integrity re-hash (§4.7) into a standalone,
// read-only check.
func verifyMain(command *cobra.Command, arguments []string) error {
	root := arguments[0]

	algorithm, err := parseAlgorithm(verifyConfiguration.algorithm)
	if err != nil {
		return err
	}

	var checked, mismatched int
	walkErr := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		checked++
		if sum := algorithm.Sum(data); sum != info.Name() {
			mismatched++
			fmt.Printf("MISMATCH: %s (expected digest %s)\n", path, sum)
		}
		return nil
	})
	if walkErr != nil {
		return errors.Wrap(walkErr, "unable to walk chunk store")
	}

	if checked == 0 {
		cmd.Warning("store contains no chunks to verify")
	}

	fmt.Printf("Checked %d chunk(s), %d mismatch(es)\n", checked, mismatched)
	if mismatched > 0 {
		return errors.Errorf("%d chunk(s) failed verification", mismatched)
	}
	return nil
}

var verifyCommand = &cobra.Command{
	Use:   "verify <store>",
	Short: "Verify that every chunk in a store hashes to its own filename",
	Args:  cobra.ExactArgs(1),
	Run:   cmd.Mainify(verifyMain),
}

var verifyConfiguration struct {
	algorithm string
}

func init() {
	flags := verifyCommand.Flags()
	flags.SortFlags = false
	flags.StringVar(&verifyConfiguration.algorithm, "hashing-algorithm", "sha1", "Hashing algorithm the store was built with (md5|sha1|sha256|sha512)")
}
