// admtool submits tour create/edit forms against a running API instance,
// running the same validate-then-submit lifecycle the dashboard uses.
//
//	admtool -api https://api.example.com -token $TOKEN tour.json
//	admtool -api https://api.example.com -token $TOKEN -id <tour-id> tour.json
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io/ioutil"
	"log"
	"net/http"
	"os"

	"github.com/seatrek/toursapi/internal/formflow"
)

var tourSchema = formflow.Schema{
	{Name: "name", Required: true, MinLen: 3},
	{Name: "description", Required: true, MinLen: 50},
	{Name: "difficulty", Required: true, Enum: []string{"EASY", "MODERATE", "CHALLENGING", "EXTREME"}},
	{Name: "duration", Required: true, Positive: true},
	{Name: "maxParticipants", Required: true, Positive: true},
	{Name: "basePrice", Required: true, Positive: true},
	{Name: "startLocationId", Required: true},
	{Name: "endLocationId", Required: true},
	{Name: "marineLifeIds", Required: true, NonEmpty: true},
	{Name: "seasons", Required: true, NonEmpty: true},
}

func main() {
	api := flag.String("api", "http://localhost:8080", "base url of the tours api")
	token := flag.String("token", "", "bearer token for admin routes")
	id := flag.String("id", "", "existing tour id; when set the form updates instead of creating")
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	data, err := ioutil.ReadFile(flag.Arg(0))
	if err != nil {
		log.Fatal(err)
	}

	var values map[string]interface{}
	if err := json.Unmarshal(data, &values); err != nil {
		log.Fatal(err)
	}

	form := formflow.New(tourSchema, func(values map[string]interface{}, existingID string) error {
		body, err := json.Marshal(values)
		if err != nil {
			return err
		}

		method, url := "POST", *api+"/tours"
		if existingID != "" {
			method, url = "PATCH", *api+"/tours/"+existingID
		}

		req, err := http.NewRequest(method, url, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+*token)

		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		out, _ := ioutil.ReadAll(resp.Body)
		if resp.StatusCode >= 300 {
			return fmt.Errorf("%s %s: %s: %s", method, url, resp.Status, string(out))
		}
		fmt.Println(string(out))
		return nil
	})

	if err := form.Submit(values, *id); err != nil {
		log.Fatal(err)
	}
	log.Println("form state:", form.State())
}
