package controller

import (
	"log"

	"wayplan/utils"

	"github.com/gofiber/fiber/v2"
)

type FlightController struct {
	Client utils.FlightLookup
	Logger *log.Logger
}

func NewFlightController(client utils.FlightLookup, logger *log.Logger) *FlightController {
	return &FlightController{
		Client: client,
		Logger: logger,
	}
}

// LookupFlight is a direct pass-through to the flight provider, used by
// clients to preview live data before attaching it to a segment.
func (fc *FlightController) LookupFlight(c *fiber.Ctx) error {
	flightNumber := c.Query("flightNumber")
	date := c.Query("date")
	if flightNumber == "" || date == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "flightNumber and date are required (YYYY-MM-DD)",
		})
	}

	data, err := fc.Client.FetchByNumberAndDate(flightNumber, date)
	if err != nil {
		fc.Logger.Printf("Flight lookup failed for %s on %s: %v", flightNumber, date, err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "Flight lookup failed",
		})
	}
	if data == nil {
		return c.JSON(fiber.Map{"found": false})
	}

	return c.JSON(fiber.Map{
		"found": true,
		"data": fiber.Map{
			"flightStatus":       data.Status,
			"flightAirline":      data.Airline,
			"flightDeparture":    data.Departure,
			"flightArrival":      data.Arrival,
			"flightDelayMinutes": data.DelayMinutes,
			"flightGateDeparture": data.GateDeparture,
			"flightGateArrival":  data.GateArrival,
			"flightTerminalDep":  data.TerminalDep,
			"flightTerminalArr":  data.TerminalArr,
			"flightBaggage":      data.Baggage,
			"flightMeta":         data.Meta,
		},
	})
}
