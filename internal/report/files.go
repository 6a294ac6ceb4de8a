package report

import (
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/cvewatch/cvewatch/config"
	"github.com/cvewatch/cvewatch/pkg/nvdlib"
)

func exists(path string) bool {
	_, err := os.Stat(path)
	if err != nil {
		if os.IsExist(err) {
			return true
		}

		return false
	}
	return true
}

func getOutputFile(ctx context.Context) (string, error) {
	outfile := ctx.Value("output").(string)
	if outfile == "output" {
		pwd, _ := os.Getwd()
		folder := filepath.Join(pwd, "output")
		if !exists(folder) {
			err := os.MkdirAll(folder, os.FileMode(0755))
			if err != nil {
				return "", err
			}
		}
		nowStamp := time.Now().Format("2006-01-02")
		file := filepath.Join(folder, fmt.Sprintf("%s.json", nowStamp))

		return file, nil

	} else {
		folder := filepath.Dir(outfile)
		if !exists(folder) {
			err := os.MkdirAll(folder, os.FileMode(0755))
			if err != nil {
				return "", err
			}
		}

		return outfile, nil

	}

}

// SearchToJson saves the fetched records as a JSON file.
func SearchToJson(ctx context.Context, rl *nvdlib.ResultList) error {
	filename, err := getOutputFile(ctx)
	if err != nil {
		return err
	}

	data, err := json.Marshal(rl.Results)
	if err != nil {
		return err
	}
	err = ioutil.WriteFile(filename, data, 0644)
	if err != nil {
		return err
	}

	fmt.Printf("\n")
	log.Printf("Output file is saved in: %s", config.Yellow(filename))

	return nil
}
