package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"liyu1981.xyz/flow-meter-service/pkg/db"
	pb "liyu1981.xyz/flow-meter-service/pkg/grpc/meter_service"
	"liyu1981.xyz/flow-meter-service/pkg/models"
)

var (
	seedPath       = flag.String("seed", "seed.example.yaml", "seed file listing the meters to drive")
	httpHostPort   = flag.String("http", "127.0.0.1:1080", "http host:port")
	grpcHostPort   = flag.String("grpc", "127.0.0.1:1081", "grpc host:port")
	viewersPerMtr  = flag.Int("viewers", 50, "live viewers per meter")
	readingsPerMtr = flag.Int("readings", 100, "readings ingested per meter")
)

var grpcClient pb.MeterServiceClient

var rnd *rand.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
var rndMu sync.Mutex

func main() {
	flag.Parse()

	seed, err := db.LoadSeed(*seedPath)
	if err != nil {
		log.Fatal("Failed to load seed file:", err)
	}
	fmt.Printf("driving %v meters\n", len(seed.Meters))

	resp, err := http.Get(fmt.Sprintf("http://%s/healthz", *httpHostPort))
	if err != nil {
		log.Fatal("Failed to connect to HTTP server:", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		log.Fatal("HTTP server not available")
	}
	fmt.Printf("http server verified\n")

	conn, err := grpc.NewClient(*grpcHostPort, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		log.Fatal("Failed to connect to gRPC server:", err)
	}
	defer conn.Close()
	grpcClient = pb.NewMeterServiceClient(conn)
	fmt.Printf("gRPC client ready\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var received atomic.Int64
	var ready sync.WaitGroup
	var viewers sync.WaitGroup

	startTime := time.Now()
	for _, m := range seed.Meters {
		for range *viewersPerMtr {
			ready.Add(1)
			viewers.Add(1)
			go func() {
				defer viewers.Done()
				if flipCoin() {
					watchWebSocket(ctx, m.Code, m.Pin, &ready, &received)
				} else {
					watchStream(ctx, m.Code, m.Pin, &ready, &received)
				}
			}()
		}
	}
	ready.Wait()
	usedTime := time.Since(startTime)
	totalViewers := len(seed.Meters) * *viewersPerMtr
	fmt.Printf(
		"opened %v live channels: used time=%v seconds, throughput=%v channel/second\n",
		totalViewers, usedTime.Seconds(), float64(totalViewers)/usedTime.Seconds(),
	)

	startTime = time.Now()
	var ingestors sync.WaitGroup
	for _, m := range seed.Meters {
		ingestors.Add(1)
		go func() {
			defer ingestors.Done()
			total := 0.0
			for i := range *readingsPerMtr {
				delta := rndFloat64(0.0, 2.0, 3)
				total += delta
				ingest(m.Code, m.Pin, models.Sample{
					FlowLps:     rndFloat64(0.0, 5.0, 2),
					LitersDelta: delta,
					LitersTotal: total,
				})
				fmt.Printf("\ringested reading %v for meter %v", i, m.Code)
			}
		}()
	}
	ingestors.Wait()
	usedTime = time.Since(startTime)

	readings := len(seed.Meters) * *readingsPerMtr
	fmt.Printf(
		"\n\ringested %v readings: used time=%v seconds, throughput=%v reading/second\n",
		readings, usedTime.Seconds(), float64(readings)/usedTime.Seconds(),
	)

	// let the last fan-outs land
	time.Sleep(time.Second)
	cancel()
	viewers.Wait()

	expected := int64(readings * *viewersPerMtr)
	fmt.Printf("delivered %v of %v expected live events\n", received.Load(), expected)
}

func flipCoin() bool {
	rndMu.Lock()
	defer rndMu.Unlock()
	return rnd.Int31n(100000)%2 == 0
}

func rndFloat64(min, max float64, decimal int) float64 {
	rndMu.Lock()
	val := min + rnd.Float64()*(max-min)
	rndMu.Unlock()
	multiplier := float64(math.Pow10(decimal))
	return float64(math.Round(float64(val)*float64(multiplier))) / multiplier
}

func ingest(meterCode, pin string, sample models.Sample) {
	if flipCoin() {
		payload := map[string]any{
			"meter_code":   meterCode,
			"pin":          pin,
			"flow_lps":     sample.FlowLps,
			"liters_delta": sample.LitersDelta,
			"liters_total": sample.LitersTotal,
		}
		jsonData, _ := json.Marshal(payload)
		resp, err := http.Post(fmt.Sprintf("http://%s/api/ingest", *httpHostPort), "application/json", bytes.NewBuffer(jsonData))
		if err != nil {
			fmt.Printf("\nerror: %v\n", err)
			return
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			fmt.Printf("\nresponse status code != 200: %v\n", resp.Status)
		}
		return
	}

	resp, err := grpcClient.Ingest(context.Background(), &pb.IngestRequest{
		MeterCode:   meterCode,
		Pin:         pin,
		FlowLps:     sample.FlowLps,
		LitersDelta: sample.LitersDelta,
		LitersTotal: sample.LitersTotal,
	})
	if err != nil {
		fmt.Printf("\nerror: %v\n", err)
		return
	}
	if !resp.Status.Success {
		fmt.Printf("\nresponse success = false: %v\n", resp)
	}
}

func watchWebSocket(ctx context.Context, meterCode, pin string, ready *sync.WaitGroup, received *atomic.Int64) {
	u := url.URL{Scheme: "ws", Host: *httpHostPort, Path: "/ws/meter/" + meterCode, RawQuery: "pin=" + url.QueryEscape(pin)}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		fmt.Printf("\nwebsocket error: %v\n", err)
		ready.Done()
		return
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	first := true
	for {
		var event models.ReadingEvent
		if err := conn.ReadJSON(&event); err != nil {
			if first {
				ready.Done()
			}
			return
		}
		if first {
			first = false
			ready.Done()
			continue
		}
		received.Add(1)
	}
}

func watchStream(ctx context.Context, meterCode, pin string, ready *sync.WaitGroup, received *atomic.Int64) {
	stream, err := grpcClient.Subscribe(ctx, &pb.SubscribeRequest{MeterCode: meterCode, Pin: pin})
	if err != nil {
		fmt.Printf("\nsubscribe error: %v\n", err)
		ready.Done()
		return
	}

	first := true
	for {
		if _, err := stream.Recv(); err != nil {
			if first {
				ready.Done()
			}
			return
		}
		if first {
			first = false
			ready.Done()
			continue
		}
		received.Add(1)
	}
}
