package main

import server "dmbox/cmd/server"

func main() {
	server.Run()
}
