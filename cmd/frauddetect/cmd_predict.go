package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/akhilimadabathuni/FraudDetectionModel/dataset"
	"github.com/akhilimadabathuni/FraudDetectionModel/detector"
)

var predictCmd = &cobra.Command{
	Use:   "predict <records.csv>",
	Short: "Classify a CSV of transactions against a saved detector",
	Long: `predict loads a previously saved detector, replays its filter
pipeline over the given CSV (same columns as the training file; the
fraud column may be zero-filled), and prints one verdict per row.`,
	Args: cobra.ExactArgs(1),
	RunE: runPredict,
}

func runPredict(cmd *cobra.Command, args []string) error {
	d, err := detector.Load(modelPath)
	if err != nil {
		return err
	}

	raw, err := dataset.NewCSVLoader().Load(args[0])
	if err != nil {
		return err
	}

	preds, err := d.PredictDataset(raw)
	if err != nil {
		return err
	}
	for i, p := range preds {
		fmt.Printf("%6d  %s\n", i+1, p.Verdict)
	}

	fraud := 0
	for _, p := range preds {
		if p.Verdict == detector.VerdictFraud {
			fraud++
		}
	}
	fmt.Printf("\n%d of %d transactions flagged as fraud\n", fraud, len(preds))
	return nil
}
