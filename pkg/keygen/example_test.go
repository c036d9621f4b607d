package keygen_test

import (
	"context"
	"fmt"

	"github.com/mahdiidarabi/froggy-keygen/pkg/keygen"
)

func ExampleClient_Generate() {
	client := keygen.NewClient().
		WithStrategy(keygen.NewKnownStrategy())

	result, err := client.Generate(context.Background(), "")
	if err != nil {
		fmt.Println(err)
		return
	}

	fmt.Println(result.Found, result.Serial)
	// Output: true 93D8A8AB-9ABCABD9-FFA34899-79D69257
}

func ExampleClient_Verify() {
	ok, err := keygen.NewClient().Verify("", "93d8a8ab9abcabd9ffa3489979d69257")
	fmt.Println(ok, err)
	// Output: true <nil>
}
