package main

import "github.com/vietddude/paymentd/internal/cli"

func main() {
	cli.Execute()
}
