// Команда hashpass печатает bcrypt хеш пароля для ручной вставки в users.
package main

import (
	"flag"
	"fmt"
	"log"

	"job-order-system/pkg/utils"
)

func main() {
	password := flag.String("password", "", "пароль для хеширования")
	flag.Parse()

	if *password == "" {
		log.Fatal("укажите -password")
	}

	hashed, err := utils.HashPassword(*password)
	if err != nil {
		log.Fatalf("Ошибка при генерации хеша: %v", err)
	}
	fmt.Println(hashed)
}
