// Утилита генерации bcrypt-хеша API-токена.
// Хеш кладётся в переменную окружения API_TOKEN_HASH сервера,
// сам токен сервер никогда не видит в открытом виде
package main

import (
	"fmt"
	"os"

	"bracket/pkg/crypto"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: tokenhash <token>")
		os.Exit(2)
	}

	hash, err := crypto.HashToken(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "hash token: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(hash)
}
