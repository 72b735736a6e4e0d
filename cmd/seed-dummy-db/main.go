package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/clippy-oss/homie/whatsapp-mcp/internal/domain"
	"github.com/clippy-oss/homie/whatsapp-mcp/internal/repository"
)

const ourJID = "15551234567@s.whatsapp.net"

type person struct {
	phone string
	full  string
	push  string
}

func main() {
	// Default to a dummy store directory next to the binary's working dir
	storeDir := "dummy-store"
	if len(os.Args) > 1 {
		storeDir = os.Args[1]
	}
	if err := os.MkdirAll(storeDir, 0o755); err != nil {
		log.Fatalf("Failed to create store directory: %v", err)
	}

	messagesPath := filepath.Join(storeDir, "messages.db")
	directoryPath := filepath.Join(storeDir, "whatsapp.db")
	for _, p := range []string{messagesPath, directoryPath} {
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			log.Fatalf("Failed to remove %s: %v", p, err)
		}
	}

	// Fixed seed so the same names and timestamps come back on every run
	rng := rand.New(rand.NewSource(42))
	now := time.Now().UTC().Truncate(time.Second)

	people := []person{
		{"5491122334455", "Juan Pérez", "Juancito"},
		{"5491166778899", "Juan García", ""},
		{"5491100001111", "María López", "Mari"},
		{"5491133334444", "Ana Torres", ""},
		{"5491155556666", "Anabel Ruiz", "Anabel"},
		{"5491177778888", "Pedro Gómez", ""},
		{"5491199990000", "", "Lucía"},
		{"15555550100", "Alice Johnson", "Alice"},
		{"15555550101", "Bob Smith", ""},
		{"15555550102", "Zoë Müller", "Zoe"},
	}
	groups := []struct{ jid, name string }{
		{"120363000000001@g.us", "Familia"},
		{"120363000000002@g.us", "Equipo de trabajo"},
		{"120363000000003@g.us", "Asado del sábado"},
	}

	sampleTexts := []string{
		"Hola! Cómo estás?",
		"Nos vemos mañana",
		"Gracias por la ayuda!",
		"Llego en 10 minutos",
		"Can we meet tomorrow?",
		"Te mando el archivo ahora",
		"Perfecto, ahí estaré",
		"Did you see the latest news?",
		"Buen día!",
		"Qué hora te queda bien?",
		"Feliz cumpleaños 🎉",
		"Looking forward to it!",
	}
	mediaTypes := []string{"image", "video", "document", "audio"}

	var (
		contacts []repository.DirectoryContactModel
		chats    []repository.ChatModel
		messages []repository.MessageModel
	)

	for _, p := range people {
		jid := domain.NewUserJID(p.phone).String()
		contact := repository.DirectoryContactModel{OurJID: ourJID, TheirJID: jid}
		if p.full != "" {
			contact.FullName = repository.Ptr(p.full)
		}
		if p.push != "" {
			contact.PushName = repository.Ptr(p.push)
		}
		contacts = append(contacts, contact)
	}

	type chatSeed struct {
		jid, name string
		members   []string
	}
	var seeds []chatSeed
	// Direct chats for all but the last two people; those exist only in the
	// directory.
	for _, p := range people[:len(people)-2] {
		name := p.full
		if name == "" {
			name = p.push
		}
		jid := domain.NewUserJID(p.phone).String()
		seeds = append(seeds, chatSeed{jid: jid, name: name, members: []string{jid}})
	}
	for _, g := range groups {
		var members []string
		for _, i := range rng.Perm(len(people))[:4] {
			members = append(members, domain.NewUserJID(people[i].phone).String())
		}
		seeds = append(seeds, chatSeed{jid: g.jid, name: g.name, members: members})
	}
	// A chat row that carries only a number, as the bridge writes for
	// unsaved contacts.
	seeds = append(seeds, chatSeed{jid: "5491144445555@s.whatsapp.net", members: []string{"5491144445555@s.whatsapp.net"}})

	for _, seed := range seeds {
		// 10-15 messages, oldest first, 10-60 minutes apart, starting 1-3 days ago
		numMessages := 10 + rng.Intn(6)
		messageTime := now.Add(-time.Duration(1+rng.Intn(3)) * 24 * time.Hour)

		for j := 0; j < numMessages; j++ {
			if j > 0 {
				messageTime = messageTime.Add(time.Duration(10+rng.Intn(50)) * time.Minute)
				if messageTime.After(now) {
					messageTime = now.Add(-time.Duration(rng.Intn(30)) * time.Minute)
				}
			}

			isFromMe := rng.Float32() < 0.4
			sender := domain.SelfSender
			if !isFromMe {
				sender = seed.members[rng.Intn(len(seed.members))]
			}

			msg := repository.MessageModel{
				ID:        fmt.Sprintf("3A%016X", rng.Uint64()),
				ChatJID:   seed.jid,
				Sender:    repository.Ptr(sender),
				Timestamp: messageTime,
				IsFromMe:  isFromMe,
			}
			if rng.Float32() < 0.8 {
				msg.Content = repository.Ptr(sampleTexts[rng.Intn(len(sampleTexts))])
			} else {
				media := mediaTypes[rng.Intn(len(mediaTypes))]
				msg.MediaType = repository.Ptr(media)
				msg.Filename = repository.Ptr(fmt.Sprintf("%s-%d", media, j))
				msg.Content = repository.Ptr("")
			}
			messages = append(messages, msg)
		}

		chat := repository.ChatModel{JID: seed.jid, LastMessageTime: repository.Ptr(messageTime)}
		if seed.name != "" {
			chat.Name = repository.Ptr(seed.name)
		}
		chats = append(chats, chat)
		fmt.Printf("Created chat: %s (%s) with %d messages\n", displayName(seed.name, seed.jid), kind(seed.jid), numMessages)
	}

	if err := repository.WriteMessagesStore(messagesPath, chats, messages); err != nil {
		log.Fatalf("Failed to seed messages store: %v", err)
	}
	if err := repository.WriteDirectoryStore(directoryPath, contacts); err != nil {
		log.Fatalf("Failed to seed directory store: %v", err)
	}

	fmt.Printf("Seeded %d chats, %d messages, %d contacts\n", len(chats), len(messages), len(contacts))
	fmt.Printf("Store directory: %s (set WA_STORE_DIR to use it)\n", storeDir)
}

func displayName(name, jid string) string {
	if name != "" {
		return name
	}
	return domain.LocalPart(jid)
}

func kind(jid string) string {
	if domain.IsGroupJID(jid) {
		return "group"
	}
	return "private"
}
