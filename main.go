package main

import "github.com/johannes-kuhfuss/pubwizard/app"

func main() {
	app.RunApp()
}
