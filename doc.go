// Package frauddetection builds, evaluates and serves a decision-tree
// classifier for payment fraud over labeled transaction CSV files.
//
// The workflow mirrors a classic batch training run: load a CSV,
// remove identifier columns, convert string and label columns to
// nominal dictionaries, fit a decision tree, score it with stratified
// cross-validation, persist the fitted detector, and classify new
// transactions against the reloaded model.
//
// # Quick Start
//
//	package main
//
//	import (
//	    "fmt"
//	    "log"
//
//	    "github.com/akhilimadabathuni/FraudDetectionModel/detector"
//	)
//
//	func main() {
//	    d := detector.New()
//	    if err := d.TrainCSV("transactions.csv"); err != nil {
//	        log.Fatal(err)
//	    }
//
//	    report, err := d.Evaluate(10, 1)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println(report.Summary())
//
//	    if err := d.Save("fraud_detector.model"); err != nil {
//	        log.Fatal(err)
//	    }
//
//	    pred, err := d.Classify(detector.Transaction{
//	        "category": "es_travel", "amount": "834.76",
//	    })
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println(pred.Verdict)
//	}
//
// # Packages
//
//   - dataset: CSV loading, column typing, nominal dictionaries
//   - preprocessing: column removal and nominal conversion filters
//   - tree: the decision-tree classifier
//   - metrics: accuracy, confusion matrices, per-class statistics
//   - evaluation: stratified k-fold cross-validation and reporting
//   - detector: the trained unit tying pipeline, schema and tree together
//   - core/model: persistence container and estimator base types
//   - core/parallel: parallel batch scoring helpers
//
// The frauddetect command under cmd/ drives the full workflow from the
// command line.
package frauddetection
