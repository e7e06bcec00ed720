// Command sparkml runs the flight and SMS tutorial workflows.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

func addCommands(root *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Preview the flights table and its schema",
		Args:  cobra.NoArgs,
		RunE:  showFlights}
	cmd.Flags().IntP("rows", "n", 20, "rows to print")
	root.AddCommand(cmd)

	cmd = &cobra.Command{
		Use:   "speed",
		Short: "Average speed per origin airport",
		Args:  cobra.NoArgs,
		RunE:  flightSpeed}
	root.AddCommand(cmd)

	cmd = &cobra.Command{
		Use:   "delay",
		Short: "Classify late departures",
		Args:  cobra.NoArgs,
		RunE:  flightDelay}
	cmd.Flags().String("model", "", "tree, logistic or forest (overrides config)")
	cmd.Flags().String("roc", "", "write the ROC curve to this image file")
	root.AddCommand(cmd)

	cmd = &cobra.Command{
		Use:   "duration",
		Short: "Regress flight duration on distance, origin and departure time",
		Args:  cobra.NoArgs,
		RunE:  flightDuration}
	root.AddCommand(cmd)

	cmd = &cobra.Command{
		Use:   "spam",
		Short: "Train the SMS spam filter",
		Args:  cobra.NoArgs,
		RunE:  spamFilter}
	cmd.Flags().String("roc", "", "write the ROC curve to this image file")
	root.AddCommand(cmd)

	cmd = &cobra.Command{
		Use:   "tune",
		Short: "Cross-validate the logistic delay model over penalties",
		Args:  cobra.NoArgs,
		RunE:  tuneDelay}
	root.AddCommand(cmd)

	cmd = &cobra.Command{
		Use:   "cluster",
		Short: "Cluster flights with k-means on principal components",
		Args:  cobra.NoArgs,
		RunE:  flightClusters}
	cmd.Flags().IntP("k", "k", 0, "number of clusters (overrides config)")
	root.AddCommand(cmd)
}

func main() {
	var root = &cobra.Command{
		Use:           "sparkml",
		Short:         "Flight delay and SMS spam workflows on an in-process dataframe",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringP("config", "c", "", "YAML config file (defaults when empty)")
	root.PersistentFlags().String("log-level", "", "debug, info, warn or error (overrides config)")
	addCommands(root)
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
