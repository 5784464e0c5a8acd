package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"
	aquaGrpc "liyu1981.xyz/aquapure-service/pkg/grpc"
)

var maxUsers int = 1000
var httpHostPort string = "127.0.0.1:1080"
var grpcHostPort string = "127.0.0.1:10801"

var grpcClient aquaGrpc.UsageServiceClient

var rnd *rand.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
var rndMu sync.Mutex

func main() {
	userIDs := make([]string, maxUsers)
	for i := range maxUsers {
		userIDs[i] = uuid.NewString()
	}
	fmt.Printf("generated %v user IDs\n", maxUsers)

	resp, err := http.Get(fmt.Sprintf("http://%s/healthz", httpHostPort))
	if err != nil {
		log.Fatal("Failed to connect to HTTP server:", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		log.Fatal("HTTP server not available")
	}

	fmt.Printf("http server verified\n")

	conn, err := grpc.NewClient(grpcHostPort, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		log.Fatal("Failed to connect to gRPC server:", err)
	}
	defer conn.Close()
	grpcClient = aquaGrpc.NewUsageServiceClient(conn)

	fmt.Printf("gRPC server verified and connected\n")

	var startTime time.Time
	var usedTime time.Duration

	startTime = time.Now()
	wg := sync.WaitGroup{}
	for i := range maxUsers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			setLimiter(userIDs[i])
			fmt.Printf("\rset limiter for user %v", i)
		}()
	}
	wg.Wait()
	usedTime = time.Since(startTime)

	fmt.Printf(
		"\rset limiter for %v users: used time=%v seconds, throughput=%v action/second\n",
		maxUsers, usedTime.Seconds(), float64(maxUsers)/usedTime.Seconds(),
	)

	startTime = time.Now()
	wg = sync.WaitGroup{}
	for i := range maxUsers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			doAction(userIDs[i])
		}()
	}
	wg.Wait()
	usedTime = time.Since(startTime)

	fmt.Printf(
		"\n\rdid actions for %v users: used time=%v seconds, throughput=%v action/second\n",
		maxUsers, usedTime.Seconds(), float64(maxUsers*4)/usedTime.Seconds(),
	)
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
	multiplier := math.Pow10(decimal)
	return math.Round(val*multiplier) / multiplier
}

func rndSleep() {
	rndMu.Lock()
	d := time.Duration(100+rnd.Int31n(1000)) * time.Millisecond
	rndMu.Unlock()
	time.Sleep(d)
}

func postJSON(path string, payload any) {
	jsonData, _ := json.Marshal(payload)
	resp, err := http.Post(fmt.Sprintf("http://%s%s", httpHostPort, path), "application/json", bytes.NewBuffer(jsonData))
	if err != nil {
		fmt.Printf("\nerror: %v\n", err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		fmt.Printf("\nresponse status code != 200: %v\n", resp.Status)
	}
}

func getPath(path string) {
	resp, err := http.Get(fmt.Sprintf("http://%s%s", httpHostPort, path))
	if err != nil {
		fmt.Printf("\nerror: %v\n", err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		fmt.Printf("\nresponse status code != 200: %v\n", resp.Status)
	}
}

func callGrpc(call func(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error), fields map[string]any) {
	in, err := structpb.NewStruct(fields)
	if err != nil {
		panic(err)
	}
	resp, err := call(context.Background(), in)
	if err != nil {
		fmt.Printf("\nerror: %v\n", err)
		return
	}
	status := resp.GetFields()["status"].GetStructValue()
	if !status.GetFields()["success"].GetBoolValue() {
		fmt.Printf("\nresponse success = false: %v\n", resp)
	}
}

func setLimiter(userID string) {
	payload := map[string]any{"rate": 50.0, "burst": 100.0}
	if flipCoin() {
		postJSON(fmt.Sprintf("/users/%s/limiter", userID), payload)
	} else {
		payload["user_id"] = userID
		callGrpc(grpcClient.PostLimiter, payload)
	}
}

func doAction(userID string) {
	actions := []func(){
		genLogUsageAction(userID),
		genGetWeeklyAction(userID),
		genGetSummaryAction(userID),
		genPostSensorAction(userID),
	}
	actionNames := []string{
		"LogUsage",
		"GetWeekly",
		"GetSummary",
		"PostSensor",
	}
	rndMu.Lock()
	rnd.Shuffle(len(actions), func(i, j int) {
		actions[i], actions[j] = actions[j], actions[i]
		actionNames[i], actionNames[j] = actionNames[j], actionNames[i]
	})
	rndMu.Unlock()
	for index, action := range actions {
		action()
		fmt.Printf("\rexecuted action %v for user %v", actionNames[index], userID)
		rndSleep()
	}
}

func genLogUsageAction(userID string) func() {
	return func() {
		payload := map[string]any{
			"liters": rndFloat64(0.1, 5.0, 2),
			"at":     time.Now().Format(time.RFC3339),
		}
		if flipCoin() {
			postJSON(fmt.Sprintf("/users/%s/usage", userID), payload)
		} else {
			payload["user_id"] = userID
			callGrpc(grpcClient.LogUsage, payload)
		}
	}
}

func genGetWeeklyAction(userID string) func() {
	return func() {
		if flipCoin() {
			getPath(fmt.Sprintf("/users/%s/usage/weekly", userID))
		} else {
			callGrpc(grpcClient.GetWindow, map[string]any{"user_id": userID, "kind": "weekly"})
		}
	}
}

func genGetSummaryAction(userID string) func() {
	return func() {
		if flipCoin() {
			getPath(fmt.Sprintf("/users/%s/usage/summary", userID))
		} else {
			callGrpc(grpcClient.GetSummary, map[string]any{"user_id": userID})
		}
	}
}

func genPostSensorAction(userID string) func() {
	return func() {
		payload := map[string]any{
			"ph":          rndFloat64(5.5, 9.0, 1),
			"turbidity":   rndFloat64(0.0, 8.0, 1),
			"temperature": rndFloat64(10.0, 30.0, 1),
			"waterLevel":  rndFloat64(0.0, 100.0, 0),
			"flowRate":    rndFloat64(0.0, 3.0, 2),
		}
		if flipCoin() {
			postJSON(fmt.Sprintf("/users/%s/sensors", userID), payload)
		} else {
			payload["user_id"] = userID
			callGrpc(grpcClient.PostSensor, payload)
		}
	}
}
