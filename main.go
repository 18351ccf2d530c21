package main

import "github.com/killallgit/study-api/cmd"

// @title           Study Sync API
// @version         1.0.0
// @description     Study, annotation and video ledger sync service for the 3D model viewer
// @contact.name    API Support
// @contact.url     https://github.com/killallgit/study-api
// @license.name    MIT
// @license.url     https://opensource.org/licenses/MIT
// @host            localhost:3001
// @BasePath        /
// @schemes         http https
func main() {
	cmd.Execute()
}
