package main

import "moodle-scraper/cmd"

func main() {
	cmd.Execute()
}
