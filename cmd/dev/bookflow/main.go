// bookflow drives one complete booking through a running api instance, step
// by step, printing each response. Pair it with cmd/dev/simbackend.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

func main() {
	var (
		apiURL      = flag.String("api", "http://localhost:8081", "booking api base url")
		destination = flag.String("destination", "caribbean", "destination")
		adults      = flag.Int("adults", 2, "adult count")
		children    = flag.Int("children", 1, "child count")
		cabinType   = flag.String("cabin", "balcony", "cabin type to book")
	)
	flag.Parse()

	c := &http.Client{Timeout: 15 * time.Second}

	var created struct {
		Session struct {
			ID string `json:"id"`
		} `json:"session"`
	}
	call(c, http.MethodPost, *apiURL+"/v1/sessions", nil, &created)
	id := created.Session.ID
	base := *apiURL + "/v1/sessions/" + id
	fmt.Printf("session %s\n", id)

	// Step 1: summary
	call(c, http.MethodPatch, base, map[string]any{
		"destination": *destination,
		"adults":      *adults,
		"children":    *children,
	}, nil)
	call(c, http.MethodPost, base+"/advance", nil, nil)

	// Step 2: passengers
	patch := map[string]any{
		"primaryPassenger": map[string]any{
			"fullName": "Avery Lane", "gender": "female", "citizenship": "US",
			"age": 41, "email": "avery@example.com",
		},
	}
	var additional []map[string]any
	for i := 0; i < *adults-1; i++ {
		additional = append(additional, map[string]any{
			"fullName": fmt.Sprintf("Adult Guest %d", i+1), "gender": "male",
			"citizenship": "US", "age": 35,
		})
	}
	for i := 0; i < *children; i++ {
		additional = append(additional, map[string]any{
			"fullName": fmt.Sprintf("Child Guest %d", i+1), "gender": "female",
			"citizenship": "US", "age": 9,
		})
	}
	patch["additionalPassengers"] = additional
	call(c, http.MethodPatch, base, patch, nil)
	call(c, http.MethodPost, base+"/advance", nil, nil)

	// Step 3: cabin
	call(c, http.MethodGet, base+"/cabins", nil, nil)
	call(c, http.MethodPatch, base, map[string]any{"cabinType": *cabinType}, nil)
	call(c, http.MethodPost, base+"/advance", nil, nil)

	// Step 4: payment + submit
	call(c, http.MethodPatch, base, map[string]any{
		"payment": map[string]any{
			"cardholderName": "Avery Lane", "cardNumber": "4242424242424242",
			"expiry": "12/28", "cvc": "123",
		},
	}, nil)
	call(c, http.MethodPost, base+"/submit", nil, nil)
	call(c, http.MethodPost, base+"/complete", nil, nil)
}

func call(c *http.Client, method, url string, body any, out any) {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		fmt.Fprintf(os.Stderr, "new request: %v\n", err)
		os.Exit(1)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.Do(req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s %s: %v\n", method, url, err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	b, _ := io.ReadAll(resp.Body)
	fmt.Printf("%s %s -> %d\n%s\n", method, url, resp.StatusCode, string(b))
	if resp.StatusCode >= 400 {
		os.Exit(1)
	}
	if out != nil {
		_ = json.Unmarshal(b, out)
	}
}
