package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/0xRadioAc7iv/go-jewelstore/internal"
	"github.com/0xRadioAc7iv/go-jewelstore/internal/protocol"
	"github.com/0xRadioAc7iv/go-jewelstore/internal/utils"
	"github.com/0xRadioAc7iv/go-jewelstore/jewelstore"
)

func main() {
	host := flag.String("host", internal.DEFAULT_HOST, "jewelstore server host")
	port := flag.Int("port", internal.DEFAULT_PORT, "jewelstore server port")
	flag.Parse()

	client, err := jewelstore.Connect(jewelstore.WithHost(*host), jewelstore.WithPort(*port))
	if err != nil {
		log.Fatal(err)
	}
	defer client.Close()

	fmt.Printf("Connected to %v:%d\n", *host, *port)
	fmt.Println("Type commands. 'help' for information or 'exit' (or 0) to quit.")

	reader := bufio.NewReader(os.Stdin)

	for {
		fmt.Print("> ")

		line, err := reader.ReadString('\n')
		if err != nil {
			if line = strings.TrimSpace(line); line == "" {
				return
			}
		}

		line = strings.TrimSpace(line)

		if line == "" {
			continue
		}

		if line == "exit" || line == "0" {
			return
		}

		cmd, args, err := utils.SplitCommandLine(line)
		if err != nil {
			fmt.Println("parse error:", err)
			continue
		}

		resp, err := client.Execute(cmd, args...)
		if err != nil {
			log.Fatal(err)
		}

		switch resp.Status {
		case protocol.StatusOK:
			fmt.Println(resp.Body)
		case protocol.StatusNotFound:
			fmt.Println("(nil)", resp.Body)
		default:
			fmt.Println("(error)", resp.Body)
		}
	}
}
