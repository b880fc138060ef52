package main

import (
	"fmt"
	"log"

	"github.com/dukemzone/kpi-portal/internal/utils"
)

func main() {
	fmt.Println("===========================================")
	fmt.Println("JWT Secret Generator for the DIZ KPI portal")
	fmt.Println("===========================================")
	fmt.Println()

	accessSecret, refreshSecret, err := utils.GenerateJWTSecrets()
	if err != nil {
		log.Fatalf("Failed to generate secrets: %v", err)
	}

	fmt.Println("Add these to your .env file:")
	fmt.Println()
	fmt.Print(utils.EnvBlock(accessSecret, refreshSecret))
	fmt.Println()
	fmt.Println("Keep these secrets out of version control.")
}
