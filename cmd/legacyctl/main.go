package main

import (
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/danmuck/legacyctl/internal/protocol"
	"github.com/danmuck/legacyctl/internal/proxy"
)

func main() {
	server := flag.String("server", "localhost:5110", "relay address of a running legacyctld")
	kindName := flag.String("kind", "", "command to send (see -list)")
	scopeName := flag.String("scope", "", "override target scope (engine|train|switch|accessory|route)")
	address := flag.Uint("address", 0, "target address 1-99")
	data := flag.Uint("data", 0, "command data, where the command takes any")
	list := flag.Bool("list", false, "list known commands and exit")
	flag.Parse()

	if *list {
		listKinds()
		return
	}
	if *kindName == "" {
		fatalf("missing -kind (use -list to see commands)")
	}

	kind, ok := protocol.ParseKind(*kindName)
	if !ok {
		fatalf("unknown command %q", *kindName)
	}

	var req *protocol.Request
	var err error
	if *scopeName != "" {
		scope, ok := protocol.ParseScope(*scopeName)
		if !ok {
			fatalf("unknown scope %q", *scopeName)
		}
		req, err = protocol.NewScopedRequest(kind, scope, uint8(*address), uint32(*data))
	} else {
		req, err = protocol.NewRequest(kind, uint8(*address), uint32(*data))
	}
	if err != nil {
		fatalf("%v", err)
	}

	client := proxy.NewClient(*server, 0)
	if err := client.Send(req.Bytes()); err != nil {
		fatalf("send failed: %v", err)
	}
	fmt.Println(req.String())
}

func listKinds() {
	names := make([]string, 0)
	for _, k := range protocol.Kinds() {
		names = append(names, k.String())
	}
	sort.Strings(names)
	for _, n := range names {
		fmt.Println(n)
	}
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "legacyctl: "+format+"\n", args...)
	os.Exit(1)
}
