// Command frauddetect trains a decision-tree fraud detector on a
// labeled transaction CSV, cross-validates it, saves the model, and
// classifies a pair of example transactions against the saved model.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/akhilimadabathuni/FraudDetectionModel/detector"
	"github.com/akhilimadabathuni/FraudDetectionModel/pkg/errors"
	logpkg "github.com/akhilimadabathuni/FraudDetectionModel/pkg/log"
	"github.com/akhilimadabathuni/FraudDetectionModel/tree"
)

var (
	modelPath string
	folds     int
	seed      int
	criterion string
	maxDepth  int
	chartPath string
	logLevel  string
)

var rootCmd = &cobra.Command{
	Use:   "frauddetect <transactions.csv>",
	Short: "Train and evaluate a decision-tree fraud detector",
	Long: `frauddetect fits a decision tree on a labeled transaction CSV,
reports stratified cross-validation results, saves the fitted detector,
reloads it, and classifies two example transactions.`,
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		switch logLevel {
		case "debug", "info", "warn", "error":
			logpkg.SetupLogger(logLevel)
			return nil
		default:
			return errors.NewValidationError("log-level",
				"must be one of debug, info, warn, error", logLevel)
		}
	},
	RunE: runTrain,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&modelPath, "model", "fraud_detector.model",
		"path of the saved detector")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn",
		"log verbosity: debug, info, warn, error")
	rootCmd.Flags().IntVar(&folds, "folds", 10, "number of cross-validation folds")
	rootCmd.Flags().IntVar(&seed, "seed", 1, "random seed for fold assignment")
	rootCmd.Flags().StringVar(&criterion, "criterion", "gini",
		"split criterion: gini or entropy")
	rootCmd.Flags().IntVar(&maxDepth, "max-depth", 0,
		"maximum tree depth, 0 for unlimited")
	rootCmd.Flags().StringVar(&chartPath, "chart", "",
		"if set, write a per-fold accuracy chart to this file")

	rootCmd.AddCommand(predictCmd)
}

func runTrain(cmd *cobra.Command, args []string) error {
	csvPath := args[0]
	if _, err := os.Stat(csvPath); os.IsNotExist(err) {
		return errors.NewDataFormatError("frauddetect", csvPath, "file not found")
	}
	if folds < 2 {
		return errors.NewValidationError("folds", "cross-validation needs at least 2 folds", folds)
	}

	treeOpts := []tree.Option{tree.WithCriterion(criterion)}
	if maxDepth > 0 {
		treeOpts = append(treeOpts, tree.WithMaxDepth(maxDepth))
	}

	d := detector.New(detector.WithTreeOptions(treeOpts...))
	if err := d.TrainCSV(csvPath); err != nil {
		return err
	}

	dump, err := d.DumpTree()
	if err != nil {
		return err
	}
	fmt.Println("=== Classifier model (full training set) ===")
	fmt.Println()
	fmt.Println(dump)

	report, err := d.Evaluate(folds, seed)
	if err != nil {
		return err
	}
	classValues, err := d.ClassValues()
	if err != nil {
		return err
	}
	fmt.Println(report.Summary())
	fmt.Println(report.DetailString(classValues))
	fmt.Println(report.MatrixString(classValues))

	if chartPath != "" {
		if err := report.SaveFoldChart(chartPath); err != nil {
			return err
		}
		fmt.Printf("Fold accuracy chart written to %s\n\n", chartPath)
	}

	if err := d.Save(modelPath); err != nil {
		return err
	}
	fmt.Printf("Model saved to %s\n\n", modelPath)

	// Reload from disk and classify two example transactions, proving
	// the persisted detector stands on its own.
	loaded, err := detector.Load(modelPath)
	if err != nil {
		return err
	}
	examples := []detector.Transaction{
		{"step": "180", "age": "3", "gender": "F", "category": "es_travel", "amount": "834.76"},
		{"step": "180", "age": "2", "gender": "M", "category": "es_transportation", "amount": "22.50"},
	}
	preds, err := loaded.PredictBatch(examples)
	if err != nil {
		return err
	}
	for i, p := range preds {
		fmt.Printf("Transaction %d (category=%s, amount=%s): %s\n",
			i+1, examples[i]["category"], examples[i]["amount"], p.Verdict)
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("command failed", logpkg.ErrAttr(err))
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
