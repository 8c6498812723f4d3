package chat

import (
	"context"
	"errors"
	"testing"
)

type op struct {
	kind string
	text string
	ref  MessageRef
}

type recordingTransport struct {
	nextID   int
	ops      []op
	failSend bool
	failEdit bool
}

func (r *recordingTransport) Send(_ context.Context, chatID int64, text, _ string) (MessageRef, error) {
	if r.failSend {
		return MessageRef{}, errors.New("send failed")
	}
	r.nextID++
	ref := MessageRef{ChatID: chatID, MessageID: r.nextID}
	r.ops = append(r.ops, op{kind: "send", text: text, ref: ref})
	return ref, nil
}

func (r *recordingTransport) Edit(_ context.Context, ref MessageRef, text, _ string) error {
	if r.failEdit {
		return errors.New("edit failed")
	}
	r.ops = append(r.ops, op{kind: "edit", text: text, ref: ref})
	return nil
}

func (r *recordingTransport) Delete(_ context.Context, ref MessageRef) error {
	r.ops = append(r.ops, op{kind: "delete", ref: ref})
	return nil
}

func (r *recordingTransport) last() op {
	if len(r.ops) == 0 {
		return op{}
	}
	return r.ops[len(r.ops)-1]
}

func countKind(ops []op, kind string) int {
	n := 0
	for _, o := range ops {
		if o.kind == kind {
			n++
		}
	}
	return n
}

func TestStatusLifecycle(t *testing.T) {
	transport := &recordingTransport{}
	reporter := NewReporter(transport)
	ctx := context.Background()

	status := reporter.Acknowledge(ctx, 10, "thinking")
	status.Advance(ctx, "processing")
	status.Finalize(ctx, "done", ModePlain)

	// 整个回合只产生一条消息，推进用原地编辑。
	if got := countKind(transport.ops, "send"); got != 1 {
		t.Fatalf("应只发送一条消息: %d", got)
	}
	if got := countKind(transport.ops, "edit"); got != 2 {
		t.Fatalf("应编辑两次: %d", got)
	}
	if last := transport.last(); last.text != "done" {
		t.Fatalf("终局文案不符: %q", last.text)
	}
	if !status.Resolved() {
		t.Fatal("Finalize 后应为定稿态")
	}
}

func TestStatusNoEditAfterResolved(t *testing.T) {
	transport := &recordingTransport{}
	reporter := NewReporter(transport)
	ctx := context.Background()

	status := reporter.Acknowledge(ctx, 10, "thinking")
	status.Finalize(ctx, "final", ModePlain)
	before := len(transport.ops)

	status.Advance(ctx, "late advance")
	status.Finalize(ctx, "late finalize", ModePlain)

	if len(transport.ops) != before {
		t.Fatalf("定稿后的编辑应被拒绝: %v", transport.ops[before:])
	}
}

func TestStatusEditFailureFallsBackToSend(t *testing.T) {
	transport := &recordingTransport{failEdit: true}
	reporter := NewReporter(transport)
	ctx := context.Background()

	status := reporter.Acknowledge(ctx, 10, "thinking")
	status.Advance(ctx, "processing")

	last := transport.last()
	if last.kind != "send" || last.text != "processing" {
		t.Fatalf("编辑失败应补发新消息: %+v", last)
	}

	// 引用切到补发的消息，后续编辑落在新消息上。
	transport.failEdit = false
	status.Finalize(ctx, "done", ModePlain)
	final := transport.last()
	if final.kind != "edit" || final.ref != last.ref {
		t.Fatalf("终局编辑应作用在补发的消息上: %+v", final)
	}
}

func TestStatusAcknowledgeFailureDegrades(t *testing.T) {
	transport := &recordingTransport{failSend: true}
	reporter := NewReporter(transport)
	ctx := context.Background()

	status := reporter.Acknowledge(ctx, 10, "thinking")
	if status == nil {
		t.Fatal("发送失败也应返回可用句柄")
	}

	transport.failSend = false
	status.Finalize(ctx, "done", ModePlain)

	last := transport.last()
	if last.kind != "send" || last.text != "done" || last.ref.ChatID != 10 {
		t.Fatalf("无消息引用时终局应降级为发送: %+v", last)
	}
}

func TestStatusDiscardDeletesMessage(t *testing.T) {
	transport := &recordingTransport{}
	reporter := NewReporter(transport)
	ctx := context.Background()

	status := reporter.Acknowledge(ctx, 10, "thinking")
	ref := status.Ref()
	status.Discard(ctx)

	last := transport.last()
	if last.kind != "delete" || last.ref != ref {
		t.Fatalf("Discard 应删除状态消息: %+v", last)
	}
	if !status.Resolved() {
		t.Fatal("Discard 后应为定稿态")
	}

	status.Finalize(ctx, "late", ModePlain)
	if transport.last().kind != "delete" {
		t.Fatal("Discard 后的编辑应被拒绝")
	}
}
