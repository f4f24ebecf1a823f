// recvd - HTTP interaction capture receiver.
//
// Build-time version information is injected into the cli package:
//
//	go build -ldflags "-X github.com/leelsey/recvd/pkg/cli.Version=1.0.0 \
//	  -X github.com/leelsey/recvd/pkg/cli.Commit=$(git rev-parse --short HEAD) \
//	  -X github.com/leelsey/recvd/pkg/cli.BuildDate=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
package main

import "github.com/leelsey/recvd/pkg/cli"

func main() {
	cli.Execute()
}
