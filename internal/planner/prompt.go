package planner

import (
	"encoding/json"
	"fmt"
	"strings"

	"travel-companion/internal/models"
)

func buildResearchPrompt(destination string) string {
	var parts []string

	parts = append(parts, fmt.Sprintf("Conduct a rigorous data extraction for: %s.", destination))
	parts = append(parts, "\nFirst, verify that the destination is a real, recognized travel destination.")
	parts = append(parts, "If no credible travel information can be found, return an error fact titled \"Invalid Destination\" and do not proceed with fake data.")
	parts = append(parts, "\nExecution protocol (only if destination is valid):")
	parts = append(parts, "- Locate official websites updated within the last 3 months")
	parts = append(parts, "- Find the exact current ticket price and opening hours for the main attraction")
	parts = append(parts, "- Extract the URL of the page where each price or opening time was found")
	parts = append(parts, "\nConstraints:")
	parts = append(parts, "- If exact data is unavailable, state \"Data Unavailable\" rather than guessing")
	parts = append(parts, "- Provide the exact source URL for every fact")
	parts = append(parts, "- Only hard facts, no marketing fluff")

	return strings.Join(parts, "\n")
}

func buildPlanningPrompt(prefs Preferences, research *models.ResearchOutput) string {
	var parts []string

	parts = append(parts, fmt.Sprintf("Create a realistic %s-day itinerary for: %s.", prefs.Duration, prefs.Destination))
	parts = append(parts, "\nUser preferences (must follow):")
	parts = append(parts, fmt.Sprintf("- Destination: %s", prefs.Destination))
	parts = append(parts, fmt.Sprintf("- Duration: %s days", prefs.Duration))
	parts = append(parts, fmt.Sprintf("- Interests: %s", prefs.Interests))
	parts = append(parts, fmt.Sprintf("- Budget: %s", prefs.Budget))

	if research != nil && len(research.Facts) > 0 {
		factsJSON, _ := json.MarshalIndent(research.Facts, "", "  ")
		parts = append(parts, "\nVerified research data (priority source for prices, hours and official names):")
		parts = append(parts, string(factsJSON))
	}

	parts = append(parts, "\nRules:")
	parts = append(parts, fmt.Sprintf("- Create exactly %s days", prefs.Duration))
	parts = append(parts, fmt.Sprintf("- Prioritize activities matching \"%s\"", prefs.Interests))
	parts = append(parts, fmt.Sprintf("- Adjust restaurant and activity cost to a \"%s\" budget", prefs.Budget))
	parts = append(parts, "- Schedule the top landmark at opening or golden hour to avoid crowds")
	parts = append(parts, "- Add \"book skip-the-line tickets in advance\" for popular attractions with queues")
	parts = append(parts, "- Include one signature experience such as a boat cruise or a viewpoint at night")
	parts = append(parts, "- Keep daily walking under 10 km and group activities geographically")
	parts = append(parts, "- Never schedule more than 4 paid attractions per day")

	return strings.Join(parts, "\n")
}
