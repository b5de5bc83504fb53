package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
)

// Tiny liveness probe for container healthchecks: hits the server's
// /healthz (or /readyz) and exits 0/1. fasthttp keeps the binary lean
// and avoids pulling the full net/http client machinery into the probe.
func main() {
	addr := flag.String("addr", "127.0.0.1:8080", "server address to probe")
	path := flag.String("path", "/healthz", "probe path")
	timeout := flag.Duration("timeout", 2*time.Second, "probe timeout")
	flag.Parse()

	url := *addr
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		url = "http://" + url
	}
	url += *path

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodGet)

	client := &fasthttp.Client{ReadTimeout: *timeout, WriteTimeout: *timeout}
	if err := client.DoTimeout(req, resp, *timeout); err != nil {
		fmt.Fprintf(os.Stderr, "probe failed: %v\n", err)
		os.Exit(1)
	}
	if resp.StatusCode() != fasthttp.StatusOK {
		fmt.Fprintf(os.Stderr, "probe failed: status %d\n", resp.StatusCode())
		os.Exit(1)
	}
	fmt.Println(string(resp.Body()))
}
