// Package app is the terminal chat client: a login/register form, a peer
// picker, and a chat view kept fresh by the conversation sync loop.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"go.uber.org/zap"

	"cryptchat/internal/common"
	"cryptchat/internal/model"
	"cryptchat/internal/service/conversation"
	"cryptchat/internal/service/credential"
	"cryptchat/internal/utils/log"
)

const (
	pageLogin = "login"
	pageUsers = "users"
	pageChat  = "chat"
)

type (
	App struct {
		app   *tview.Application
		pages *tview.Pages

		credentials   *credential.Service
		conversations *conversation.Service
		syncPeriod    time.Duration

		user *model.User
		peer *model.User

		chatbox  *tview.TextView
		input    *tview.InputField
		syncer   *conversation.Syncer
		syncDone chan struct{}
	}
)

func NewApp(credentials *credential.Service, conversations *conversation.Service, syncPeriod time.Duration) *App {
	return &App{
		app:           tview.NewApplication(),
		pages:         tview.NewPages(),
		credentials:   credentials,
		conversations: conversations,
		syncPeriod:    syncPeriod,
	}
}

// Run blocks until the user quits.
func (c *App) Run(ctx context.Context) error {
	c.showLogin(ctx)
	return c.app.SetRoot(c.pages, true).Run()
}

// Stop tears down the UI and any running sync loop.
func (c *App) Stop() {
	c.stopSync()
	c.app.Stop()
}

func (c *App) showLogin(ctx context.Context) {
	c.stopSync()

	status := tview.NewTextView().SetDynamicColors(true)

	form := tview.NewForm().
		AddInputField("Username", "", 32, nil, nil).
		AddPasswordField("Password", "", 32, '*', nil)
	form.SetBorder(true).SetTitle(" Encrypted Chat ")

	readCreds := func() (string, string) {
		username := form.GetFormItemByLabel("Username").(*tview.InputField).GetText()
		pass := form.GetFormItemByLabel("Password").(*tview.InputField).GetText()
		return username, pass
	}

	form.AddButton("Login", func() {
		username, pass := readCreds()
		user, err := c.credentials.Authenticate(ctx, username, pass)
		if err != nil {
			if errors.Is(err, common.ErrInvalidCredentials) {
				status.SetText("[red]Invalid credentials[-]")
			} else {
				log.Error("login failed", zap.Error(err))
				status.SetText("[red]Login failed, see log[-]")
			}
			return
		}
		c.user = user
		c.showUserSelection(ctx)
	})

	form.AddButton("Register", func() {
		username, pass := readCreds()
		if _, err := c.credentials.Register(ctx, username, pass); err != nil {
			if errors.Is(err, common.ErrDuplicateUsername) {
				status.SetText("[red]Username already exists[-]")
			} else {
				log.Error("registration failed", zap.Error(err))
				status.SetText("[red]Registration failed, see log[-]")
			}
			return
		}
		status.SetText("[green]User registered successfully, log in to continue[-]")
	})

	form.AddButton("Quit", func() {
		c.Stop()
	})

	layout := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(form, 0, 1, true).
		AddItem(status, 1, 0, false)

	c.pages.AddAndSwitchToPage(pageLogin, layout, true)
	c.app.SetFocus(form)
}

func (c *App) showUserSelection(ctx context.Context) {
	c.stopSync()

	users, err := c.credentials.ListOtherUsers(ctx, c.user.ID)
	if err != nil {
		log.Error("listing users failed", zap.Error(err))
		users = nil
	}

	list := tview.NewList()
	list.SetBorder(true).SetTitle(" Select User to Chat With ")
	for _, u := range users {
		peer := u
		list.AddItem(peer.Username, "", 0, func() {
			c.peer = &peer
			c.showChat(ctx)
		})
	}
	list.AddItem("(log out)", "", 0, func() {
		c.user = nil
		c.showLogin(ctx)
	})

	c.pages.AddAndSwitchToPage(pageUsers, list, true)
	c.app.SetFocus(list)
}

func (c *App) showChat(ctx context.Context) {
	c.stopSync()

	c.chatbox = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true)
	c.chatbox.SetBorder(true).SetTitle(fmt.Sprintf(" Chat with %s ", c.peer.Username))

	c.input = tview.NewInputField().
		SetLabel("Message: ").
		SetFieldWidth(0)
	c.input.SetBorder(true).SetTitle(" New Message (Esc to go back) ")

	c.input.SetDoneFunc(func(key tcell.Key) {
		if key != tcell.KeyEnter {
			return
		}
		text := c.input.GetText()

		go func(msg string) {
			if err := c.sendMessage(ctx, msg); err != nil {
				log.Error("send message failed", zap.Error(err))
			}
		}(text)
	})

	c.input.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyEscape {
			c.showUserSelection(ctx)
			return nil
		}
		return event
	})

	layout := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(c.chatbox, 0, 1, false).
		AddItem(c.input, 3, 0, true)

	c.pages.AddAndSwitchToPage(pageChat, layout, true)
	c.app.SetFocus(c.input)

	// QueueUpdateDraw blocks when called from the event loop, so the initial
	// load happens off it, same as sends
	go c.refreshOnce(ctx)

	// The sync loop must never block on the event loop: its delivery runs
	// under the syncer mutex, and Stop is called from event handlers. So
	// onUpdate only drops the snapshot into a latest-wins channel; a
	// dedicated goroutine does the blocking QueueUpdateDraw.
	updates := make(chan []conversation.Entry, 1)
	done := make(chan struct{})
	c.syncDone = done
	go c.forwardUpdates(updates, done)

	c.syncer = c.conversations.StartSync(
		conversation.Pair{A: c.user.ID, B: c.peer.ID},
		func(entries []conversation.Entry) {
			pushLatest(updates, entries)
		},
		c.syncPeriod,
	)
}

// pushLatest hands a snapshot to ch without ever blocking: if the consumer
// is behind, the stale snapshot is replaced by the fresh one.
func pushLatest(ch chan []conversation.Entry, entries []conversation.Entry) {
	for {
		select {
		case ch <- entries:
			return
		default:
			select {
			case <-ch:
			default:
			}
		}
	}
}

func (c *App) forwardUpdates(updates <-chan []conversation.Entry, done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case entries := <-updates:
			c.renderConversation(entries)
		}
	}
}

func (c *App) sendMessage(ctx context.Context, text string) error {
	if err := c.conversations.Send(ctx, c.user.ID, c.peer.ID, text); err != nil {
		if errors.Is(err, common.ErrEmptyMessage) {
			return nil // nothing typed, nothing to do
		}
		return err
	}

	c.app.QueueUpdateDraw(func() {
		c.input.SetText("")
	})
	c.refreshOnce(ctx)
	return nil
}

// refreshOnce reloads the conversation immediately, without waiting for the
// next sync tick. Used right after opening the chat and after a send.
func (c *App) refreshOnce(ctx context.Context) {
	entries, err := c.conversations.Load(ctx, c.user.ID, c.peer.ID)
	if err != nil {
		log.Error("load conversation failed", zap.Error(err))
		return
	}
	c.renderConversation(entries)
}

func (c *App) renderConversation(entries []conversation.Entry) {
	c.app.QueueUpdateDraw(func() {
		c.chatbox.Clear()
		for _, e := range entries {
			color := "green"
			if e.Sender == c.user.Username {
				color = "yellow"
			}
			fmt.Fprintf(c.chatbox, "[%s]%s:[-] %s\n", color, tview.Escape(e.Sender), tview.Escape(e.Text))
		}
		c.chatbox.ScrollToEnd()
	})
}

func (c *App) stopSync() {
	if c.syncer != nil {
		c.syncer.Stop()
		c.syncer = nil
	}
	if c.syncDone != nil {
		close(c.syncDone)
		c.syncDone = nil
	}
}
