package dealership

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/showroomlabs/go-showroom/pkg/agent"
)

// ToolsConfig holds dependencies for the showroom tools.
type ToolsConfig struct {
	Inventory Inventory
	Bookings  Bookings

	// Clock supplies "now" for slot resolution. Defaults to time.Now.
	Clock func() time.Time
}

// Tools returns the showroom tools for the voice agent.
func Tools(cfg ToolsConfig) []agent.Tool {
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	return []agent.Tool{
		{
			Name: "get_cars_by_type",
			Description: "Get all cars of a specific type. " +
				"Supported types: sedan, suv, hatchback, electric, luxury. " +
				"Useful when the customer asks \"what SUVs do you have?\" or \"show me sedans\".",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"car_type": map[string]interface{}{
						"type":        "string",
						"description": "The car category to list",
					},
				},
				"required": []string{"car_type"},
			},
			Handler: func(args map[string]interface{}) (string, error) {
				carType, _ := args["car_type"].(string)
				cars, err := cfg.Inventory.CarsByType(carType)
				if err != nil {
					return fmt.Sprintf("No cars found for type: %s. Available types: %s",
						carType, strings.Join(cfg.Inventory.Types(), ", ")), nil
				}
				return toJSON(cars), nil
			},
		},
		{
			Name: "get_car_by_model",
			Description: "Search for a specific car model by name. " +
				"Useful when the customer asks about a specific car like \"tell me about the Adventure SUV\".",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"model_name": map[string]interface{}{
						"type":        "string",
						"description": "The model name to look up",
					},
				},
				"required": []string{"model_name"},
			},
			Handler: func(args map[string]interface{}) (string, error) {
				name, _ := args["model_name"].(string)
				car, err := cfg.Inventory.CarByModel(name)
				if err != nil {
					return fmt.Sprintf("Model '%s' not found in inventory.", name), nil
				}
				return toJSON(car), nil
			},
		},
		{
			Name: "get_all_available_cars",
			Description: "Get a list of all cars currently in stock. " +
				"Useful for general inquiries like \"what cars do you have?\".",
			Parameters: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
			Handler: func(args map[string]interface{}) (string, error) {
				cars := cfg.Inventory.Available()
				names := make([]string, len(cars))
				for i, car := range cars {
					names[i] = fmt.Sprintf("%s (%s)", car.Model, car.Type)
				}
				return toJSON(names), nil
			},
		},
		{
			Name: "check_availability",
			Description: "Check if a time slot is available for a test drive. " +
				"date: 'today', 'tomorrow', or 'YYYY-MM-DD'. time: '10 AM', '2:30 PM', '14:00'.",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"date": map[string]interface{}{
						"type":        "string",
						"description": "Requested date",
					},
					"time": map[string]interface{}{
						"type":        "string",
						"description": "Requested time",
					},
				},
				"required": []string{"date", "time"},
			},
			Handler: func(args map[string]interface{}) (string, error) {
				date, _ := args["date"].(string)
				timeSpec, _ := args["time"].(string)

				if msg, ok := checkSlot(cfg.Bookings, date, timeSpec, clock()); !ok {
					return msg, nil
				}
				return "Time slot is available.", nil
			},
		},
		{
			Name: "book_test_drive",
			Description: "Book a test drive for a specific car. " +
				"Requires car model, date, and time. Verify availability first.",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"car_model": map[string]interface{}{
						"type":        "string",
						"description": "The car model to test drive",
					},
					"date": map[string]interface{}{
						"type":        "string",
						"description": "Requested date",
					},
					"time": map[string]interface{}{
						"type":        "string",
						"description": "Requested time",
					},
					"customer_name": map[string]interface{}{
						"type":        "string",
						"description": "Customer name for the booking",
					},
				},
				"required": []string{"car_model", "date", "time"},
			},
			Handler: func(args map[string]interface{}) (string, error) {
				carModel, _ := args["car_model"].(string)
				date, _ := args["date"].(string)
				timeSpec, _ := args["time"].(string)
				customer, _ := args["customer_name"].(string)
				if customer == "" {
					customer = "Guest"
				}

				now := clock()
				if msg, ok := checkSlot(cfg.Bookings, date, timeSpec, now); !ok {
					return msg, nil
				}

				booking := &Booking{
					CustomerName: customer,
					CarModel:     carModel,
					Date:         date,
					Time:         timeSpec,
					At:           ParseDateTime(date, timeSpec, now),
				}
				if err := cfg.Bookings.Add(booking); err != nil {
					return fmt.Sprintf("Booking failed: %v", err), nil
				}
				return fmt.Sprintf("Test drive successfully booked! Your Booking ID is %s.", booking.ID), nil
			},
		},
	}
}

// checkSlot validates a requested slot against business hours and
// existing bookings. Returns ok=false with a user-facing message when
// the slot cannot be booked.
func checkSlot(bookings Bookings, date, timeSpec string, now time.Time) (string, bool) {
	at := ParseDateTime(date, timeSpec, now)

	if !WithinBusinessHours(at) {
		return "We're only open from 9 AM to 6 PM. Please choose a time within business hours.", false
	}
	if _, taken := bookings.ByTime(at); taken {
		return fmt.Sprintf("Sorry, %s on %s is already booked.", timeSpec, date), false
	}
	return "", true
}

func toJSON(v interface{}) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
