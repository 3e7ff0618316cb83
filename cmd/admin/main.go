// admin 是运维命令行：创建账号、发放额度、设置会员。
//
//	admin create-user --username alice [--email a@example.com]
//	admin grant --username alice --ai 10 --downloads 5
//	admin premium --username alice --on=true
package main

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"resumeai/internal/auth"
	"resumeai/internal/database"
	"resumeai/internal/errcode"
	"resumeai/internal/repository"
)

func main() {
	_ = godotenv.Load()
	if len(os.Args) < 2 {
		usage()
	}

	cmd, args := os.Args[1], os.Args[2:]
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	db := bindDatabaseFlags(fs)
	username := fs.String("username", "", "目标用户名（必填）")

	var run func(ctx context.Context, users *repository.UserRepository, user string) error
	switch cmd {
	case "create-user":
		email := fs.String("email", "", "邮箱（可选）")
		run = func(ctx context.Context, users *repository.UserRepository, u string) error {
			return createUser(ctx, users, u, *email)
		}
	case "grant":
		aiCredits := fs.Int("ai", 0, "增加的 AI 额度")
		downloads := fs.Int("downloads", 0, "增加的下载额度")
		run = func(ctx context.Context, users *repository.UserRepository, u string) error {
			return grant(ctx, users, u, *aiCredits, *downloads)
		}
	case "premium":
		on := fs.Bool("on", true, "是否为会员")
		run = func(ctx context.Context, users *repository.UserRepository, u string) error {
			user, err := users.FindByUsername(ctx, u)
			if err != nil {
				return err
			}
			if err := users.SetPremium(ctx, user.ID, *on); err != nil {
				return err
			}
			fmt.Printf("用户 %s 会员状态: %t\n", u, *on)
			return nil
		}
	default:
		usage()
	}
	_ = fs.Parse(args)

	u := strings.TrimSpace(*username)
	if u == "" {
		log.Fatal("missing required flag: --username")
	}

	dbCfg, err := db.config()
	if err != nil {
		log.Fatalf("load database config: %v", err)
	}
	ctx := context.Background()
	conn, err := database.InitDatabase(ctx, dbCfg, slog.Default())
	if err != nil {
		log.Fatalf("init database: %v", err)
	}
	if err := database.AutoMigrate(conn); err != nil {
		log.Fatalf("%v", err)
	}

	if err := run(ctx, repository.NewUserRepository(conn), u); err != nil {
		log.Fatalf("%s: %v", cmd, err)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: admin <create-user|grant|premium> --username NAME [flags]")
	os.Exit(2)
}

// createUser 生成一次性随机口令，首次登录强制改密。
func createUser(ctx context.Context, users *repository.UserRepository, username, email string) error {
	if _, err := users.FindByUsername(ctx, username); err == nil {
		return fmt.Errorf("user %q already exists", username)
	} else if !errors.Is(err, errcode.ErrNotFound) {
		return err
	}

	password, err := generateRandomPassword(24)
	if err != nil {
		return err
	}
	hashed, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	user := database.User{
		Username:           username,
		Email:              strings.TrimSpace(email),
		PasswordHash:       hashed,
		AICredits:          database.DefaultAICredits,
		MustChangePassword: true,
	}
	if err := users.Create(ctx, &user); err != nil {
		return err
	}

	fmt.Printf("已创建账号（首次登录需强制改密）：\n")
	fmt.Printf("用户名: %s\n", username)
	fmt.Printf("初始密码: %s\n", password)
	fmt.Printf("提示：该密码仅显示一次。\n")
	return nil
}

func grant(ctx context.Context, users *repository.UserRepository, username string, aiCredits, downloads int) error {
	if aiCredits <= 0 && downloads <= 0 {
		return errors.New("nothing to grant: pass --ai and/or --downloads")
	}
	user, err := users.FindByUsername(ctx, username)
	if err != nil {
		return err
	}
	if aiCredits > 0 {
		if err := users.GrantAICredits(ctx, user.ID, aiCredits); err != nil {
			return err
		}
	}
	if downloads > 0 {
		if err := users.GrantDownloadCredits(ctx, user.ID, downloads); err != nil {
			return err
		}
	}
	fmt.Printf("已为 %s 增加 AI 额度 %d、下载额度 %d\n", username, max(aiCredits, 0), max(downloads, 0))
	return nil
}

func generateRandomPassword(bytesLen int) (string, error) {
	buf := make([]byte, bytesLen)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
