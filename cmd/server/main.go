package main

import "fitbusiness/internal/app/server"

func main() {
	server.Run()
}
