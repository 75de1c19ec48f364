/*
	Basic Script that churns random catalog and purchase records through a
	running server to exercise the sorted rewrite and index rebuild paths.
*/

package main

import (
	"flag"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/0xRadioAc7iv/go-jewelstore/jewelstore"
)

const (
	concurrency = 4

	// Fixed universe
	totalProducts = 200
	totalUsers    = 50

	// Per-cycle behavior
	productsPerCycle  = 5
	purchasesPerCycle = 10
	removesPerCycle   = 2
	cyclesPerWorker   = 200

	sleepBetweenCycles = 10 * time.Millisecond

	progressEvery = 50
)

var types = []string{"Ring", "Earring", "Pendant", "Bracelet", "Necklace", "Brooch", "Souvenir"}

func main() {
	host := flag.String("host", "127.0.0.1", "jewelstore server host")
	port := flag.Int("port", 9999, "jewelstore server port")
	flag.Parse()

	start := time.Now()
	fmt.Println("Starting jewelstore churn load generator")

	var wg sync.WaitGroup

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			runWorker(id, *host, *port)
		}(i)
	}

	wg.Wait()
	fmt.Printf("Load finished in %v\n", time.Since(start))

	client, err := jewelstore.Connect(jewelstore.WithHost(*host), jewelstore.WithPort(*port))
	if err != nil {
		fmt.Println("connect error:", err)
		return
	}
	defer client.Close()

	if sold, err := client.MostSoldType(); err == nil {
		fmt.Printf("most sold type: %s (%d)\n", sold.Type, sold.Count)
	}
	if top, err := client.MostExpensive(); err == nil {
		fmt.Printf("most expensive: %s %s %.2f\n", top.ProductID, top.JewelleryType, top.Price)
	}
	if spender, err := client.TopSpender(); err == nil {
		fmt.Printf("top spender: %s %.2f\n", spender.UserID, spender.Total)
	}
}

func runWorker(id int, host string, port int) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(id)))

	client, err := jewelstore.Connect(jewelstore.WithHost(host), jewelstore.WithPort(port))
	if err != nil {
		fmt.Printf("[worker %d] connect error: %v\n", id, err)
		return
	}
	defer client.Close()

	order := 0

	for cycle := 1; cycle <= cyclesPerWorker; cycle++ {

		// ---- CATALOG PHASE ----
		for i := 0; i < productsPerCycle; i++ {
			price := fmt.Sprintf("%.2f", 1+rng.Float64()*999)
			if err := client.Insert("catalog", product(rng), types[rng.Intn(len(types))], price); err != nil {
				fmt.Printf("[worker %d] INSERT catalog error: %v\n", id, err)
				return
			}
		}

		// ---- PURCHASE PHASE ----
		for i := 0; i < purchasesPerCycle; i++ {
			order++
			date := time.Now().UTC().Format("2006-01-02 15:04:05 UTC")
			user := fmt.Sprintf("user-%03d", rng.Intn(totalUsers))
			if err := client.Insert("purchase", fmt.Sprintf("w%d-o%06d", id, order), product(rng), date, user); err != nil {
				fmt.Printf("[worker %d] INSERT purchase error: %v\n", id, err)
				return
			}
		}

		// ---- REMOVE PHASE ----
		for i := 0; i < removesPerCycle; i++ {
			if _, err := client.Remove("catalog", product(rng)); err != nil {
				fmt.Printf("[worker %d] REMOVE error: %v\n", id, err)
				return
			}
		}

		if cycle%progressEvery == 0 {
			fmt.Printf("[worker %d] completed %d cycles\n", id, cycle)
		}

		if sleepBetweenCycles > 0 {
			time.Sleep(sleepBetweenCycles)
		}
	}
}

func product(rng *rand.Rand) string {
	return fmt.Sprintf("prod-%04d", rng.Intn(totalProducts))
}
