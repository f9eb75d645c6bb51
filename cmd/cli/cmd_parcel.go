package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/sguter90/fieldmaestro/pkg/database"
	"github.com/sguter90/fieldmaestro/pkg/models"
	"github.com/spf13/cobra"
)

var parcelCmd = &cobra.Command{
	Use:   "parcel",
	Short: "Manage parcels",
	Long:  `Add, list, and delete farm parcels.`,
}

var parcelAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a new parcel",
	Long:  `Interactively add a new parcel to the system.`,
	RunE:  runParcelAdd,
}

var parcelListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all parcels",
	Long:  `Display all registered parcels with their sensors.`,
	RunE:  runParcelList,
}

var parcelDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete a parcel",
	Long:  `Delete a parcel together with its sensors, readings and alerts.`,
	RunE:  runParcelDelete,
}

var sensorCmd = &cobra.Command{
	Use:   "sensor",
	Short: "Manage sensors",
	Long:  `Add, list, and delete the sensors of a parcel.`,
}

var sensorAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a sensor to a parcel",
	RunE:  runSensorAdd,
}

var sensorListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all sensors",
	RunE:  runSensorList,
}

var sensorDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete a sensor",
	RunE:  runSensorDelete,
}

func init() {
	rootCmd.AddCommand(parcelCmd)
	parcelCmd.AddCommand(parcelAddCmd)
	parcelCmd.AddCommand(parcelListCmd)
	parcelCmd.AddCommand(parcelDeleteCmd)

	rootCmd.AddCommand(sensorCmd)
	sensorCmd.AddCommand(sensorAddCmd)
	sensorCmd.AddCommand(sensorListCmd)
	sensorCmd.AddCommand(sensorDeleteCmd)
}

func prompt(reader *bufio.Reader, label, def string) string {
	if def != "" {
		fmt.Printf("%s [%s]: ", label, def)
	} else {
		fmt.Printf("%s: ", label)
	}
	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(input)
	if input == "" {
		return def
	}
	return input
}

// promptFloat reads an optional number. Empty input means no value.
func promptFloat(reader *bufio.Reader, label string) (*float64, error) {
	raw := prompt(reader, label+" (empty for none)", "")
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid number for %s: %s", label, raw)
	}
	return &v, nil
}

// selectIndex reads a 1-based selection. Zero or invalid input returns false.
func selectIndex(reader *bufio.Reader, label string, count int) (int, bool) {
	fmt.Printf("\nEnter %s number (0 to cancel): ", label)
	input, _ := reader.ReadString('\n')

	var selection int
	if _, err := fmt.Sscanf(strings.TrimSpace(input), "%d", &selection); err != nil || selection < 0 || selection > count {
		fmt.Println("Invalid selection.")
		return 0, false
	}
	if selection == 0 {
		fmt.Println("Cancelled.")
		return 0, false
	}
	return selection - 1, true
}

func confirm(reader *bufio.Reader, question string) bool {
	fmt.Printf("\n⚠️  %s (yes/no): ", question)
	answer, _ := reader.ReadString('\n')
	answer = strings.TrimSpace(strings.ToLower(answer))
	if answer != "yes" && answer != "y" {
		fmt.Println("Cancelled.")
		return false
	}
	return true
}

// chooseParcel lists the parcels and lets the operator pick one
func chooseParcel(ctx context.Context, dbManager *database.DatabaseManager, reader *bufio.Reader, title string) (*models.Parcel, error) {
	parcels, err := dbManager.GetParcels(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch parcels: %w", err)
	}

	if len(parcels) == 0 {
		fmt.Println("No parcels registered yet.")
		return nil, nil
	}

	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Println(title)
	fmt.Println(strings.Repeat("=", 80))

	for i, p := range parcels {
		fmt.Printf("[%d] %s (%s)\n", i+1, p.Name, p.Location)
	}

	idx, ok := selectIndex(reader, "parcel", len(parcels))
	if !ok {
		return nil, nil
	}
	return &parcels[idx], nil
}

func runParcelAdd(cmd *cobra.Command, args []string) error {
	dbManager, err := databaseFrom(cmd)
	if err != nil {
		return err
	}

	reader := bufio.NewReader(os.Stdin)

	fmt.Println("\n" + strings.Repeat("=", 60))
	fmt.Println("Add New Parcel")
	fmt.Println(strings.Repeat("=", 60))

	input := models.ParcelInput{
		Name:     prompt(reader, "Name", ""),
		Location: prompt(reader, "Location", ""),
	}

	parcel, err := dbManager.CreateParcel(cmd.Context(), input)
	if err != nil {
		return fmt.Errorf("failed to save parcel: %w", err)
	}

	fmt.Printf("\n✓ Parcel created with ID: %s\n", parcel.ID)
	fmt.Println(strings.Repeat("=", 60) + "\n")

	return nil
}

func runParcelList(cmd *cobra.Command, args []string) error {
	dbManager, err := databaseFrom(cmd)
	if err != nil {
		return err
	}

	parcels, err := dbManager.GetParcels(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to fetch parcels: %w", err)
	}

	if len(parcels) == 0 {
		fmt.Println("No parcels registered yet.")
		return nil
	}

	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Println("Registered Parcels")
	fmt.Println(strings.Repeat("=", 80))

	for _, p := range parcels {
		sensors, err := dbManager.GetSensorsByParcel(cmd.Context(), p.ID)
		if err != nil {
			return fmt.Errorf("failed to fetch sensors of %s: %w", p.Name, err)
		}

		fmt.Printf("\n%s (%s)\n", p.Name, p.Location)
		fmt.Printf("  ID:      %s\n", p.ID)
		fmt.Printf("  Sensors: %d\n", len(sensors))
		for _, s := range sensors {
			fmt.Printf("    - %-14s %-6s %s\n", s.Type, s.Unit, s.Description)
		}
	}

	fmt.Println("\n" + strings.Repeat("=", 80) + "\n")
	return nil
}

func runParcelDelete(cmd *cobra.Command, args []string) error {
	dbManager, err := databaseFrom(cmd)
	if err != nil {
		return err
	}
	reader := bufio.NewReader(os.Stdin)

	parcel, err := chooseParcel(cmd.Context(), dbManager, reader, "Select Parcel to Delete")
	if err != nil || parcel == nil {
		return err
	}

	if !confirm(reader, fmt.Sprintf("Delete parcel '%s' with all its sensors and history?", parcel.Name)) {
		return nil
	}

	if err := dbManager.DeleteParcel(cmd.Context(), parcel.ID); err != nil {
		return fmt.Errorf("failed to delete parcel: %w", err)
	}

	fmt.Printf("\n✓ Parcel '%s' deleted successfully!\n", parcel.Name)
	fmt.Println(strings.Repeat("=", 80) + "\n")

	return nil
}

func sensorTypeNames() []string {
	names := make([]string, 0, len(models.SensorTypeRegistry))
	for name := range models.SensorTypeRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func runSensorAdd(cmd *cobra.Command, args []string) error {
	dbManager, err := databaseFrom(cmd)
	if err != nil {
		return err
	}
	reader := bufio.NewReader(os.Stdin)

	parcel, err := chooseParcel(cmd.Context(), dbManager, reader, "Select Parcel for the New Sensor")
	if err != nil || parcel == nil {
		return err
	}

	fmt.Println("\n" + strings.Repeat("=", 60))
	fmt.Printf("Add Sensor to %s\n", parcel.Name)
	fmt.Println(strings.Repeat("=", 60))

	sensorType := prompt(reader, "Type ("+strings.Join(sensorTypeNames(), "/")+")", "")

	input := models.SensorInput{
		Type:        sensorType,
		Unit:        prompt(reader, "Unit", models.DefaultUnit(sensorType)),
		Description: prompt(reader, "Description", ""),
	}

	if input.ThresholdLow, err = promptFloat(reader, "Low threshold"); err != nil {
		return err
	}
	if input.ThresholdHigh, err = promptFloat(reader, "High threshold"); err != nil {
		return err
	}

	sensor, err := dbManager.CreateSensor(cmd.Context(), parcel.ID, input)
	if err != nil {
		return fmt.Errorf("failed to save sensor: %w", err)
	}

	fmt.Printf("\n✓ Sensor created with ID: %s\n", sensor.ID)
	fmt.Println(strings.Repeat("=", 60) + "\n")

	return nil
}

func formatBound(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func runSensorList(cmd *cobra.Command, args []string) error {
	dbManager, err := databaseFrom(cmd)
	if err != nil {
		return err
	}

	sensors, err := dbManager.GetSensorsWithLatestReading(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to fetch sensors: %w", err)
	}

	if len(sensors) == 0 {
		fmt.Println("No sensors registered yet.")
		return nil
	}

	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Println("Registered Sensors")
	fmt.Println(strings.Repeat("=", 80))

	for _, s := range sensors {
		latest := "no data"
		if s.LatestReading != nil {
			latest = fmt.Sprintf("%s %s at %s",
				strconv.FormatFloat(s.LatestReading.Value, 'f', -1, 64),
				s.Sensor.Unit,
				s.LatestReading.Timestamp.Format("2006-01-02 15:04:05"),
			)
		}

		fmt.Printf("\n%s / %s\n", s.ParcelName, s.Sensor.Type)
		fmt.Printf("  ID:         %s\n", s.Sensor.ID)
		fmt.Printf("  Thresholds: %s .. %s\n", formatBound(s.Sensor.ThresholdLow), formatBound(s.Sensor.ThresholdHigh))
		fmt.Printf("  Latest:     %s\n", latest)
	}

	fmt.Println("\n" + strings.Repeat("=", 80) + "\n")
	return nil
}

func runSensorDelete(cmd *cobra.Command, args []string) error {
	dbManager, err := databaseFrom(cmd)
	if err != nil {
		return err
	}
	reader := bufio.NewReader(os.Stdin)

	parcel, err := chooseParcel(cmd.Context(), dbManager, reader, "Select Parcel")
	if err != nil || parcel == nil {
		return err
	}

	sensors, err := dbManager.GetSensorsByParcel(cmd.Context(), parcel.ID)
	if err != nil {
		return fmt.Errorf("failed to fetch sensors: %w", err)
	}
	if len(sensors) == 0 {
		fmt.Printf("Parcel '%s' has no sensors.\n", parcel.Name)
		return nil
	}

	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Println("Select Sensor to Delete")
	fmt.Println(strings.Repeat("=", 80))
	for i, s := range sensors {
		fmt.Printf("[%d] %s (%s) %s\n", i+1, s.Type, s.Unit, s.Description)
	}

	idx, ok := selectIndex(reader, "sensor", len(sensors))
	if !ok {
		return nil
	}
	sensor := sensors[idx]

	if !confirm(reader, fmt.Sprintf("Delete %s sensor of '%s' with its history?", sensor.Type, parcel.Name)) {
		return nil
	}

	if err := dbManager.DeleteSensor(cmd.Context(), sensor.ID); err != nil {
		return fmt.Errorf("failed to delete sensor: %w", err)
	}

	fmt.Printf("\n✓ Sensor %s deleted successfully!\n", sensor.ID)
	fmt.Println(strings.Repeat("=", 80) + "\n")

	return nil
}
