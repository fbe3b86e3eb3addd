package netatmo_test

import (
	"context"
	"fmt"
	"log"

	netatmo "github.com/truetemp/netatmo-go"
)

func Example() {
	path, _ := netatmo.DefaultCredentialPath()
	store := netatmo.NewFileCredentialStore(path)

	auth, err := netatmo.NewAuthenticator("you@example.com", "secret", store)
	if err != nil {
		log.Fatal(err)
	}

	client, err := netatmo.NewClient(auth)
	if err != nil {
		log.Fatal(err)
	}

	rooms, err := client.ListThermostatRooms(context.Background(), "")
	if err != nil {
		log.Fatal(err)
	}

	for _, room := range rooms {
		if room.MeasuredTemperature != nil {
			fmt.Printf("%s: %.1f°C\n", room.Name, *room.MeasuredTemperature)
		}
	}
}

func ExampleClient_SetTrueTemperature() {
	auth, _ := netatmo.NewAuthenticator("you@example.com", "secret", netatmo.NewMemoryCredentialStore())
	client, _ := netatmo.NewClient(auth)

	result, err := client.SetTrueTemperature(context.Background(), "room-1", 20.5, "")
	if err != nil {
		log.Fatal(err)
	}
	if result.Skipped {
		fmt.Println("already at target")
	}
}
