package analysis

import (
	"testing"

	"github.com/YvesMatteo/GapIntel-sub002/internal/model"
)

func TestPrimaryKeyword(t *testing.T) {
	v := testVideo("v1", "Docker Networking Explained", 5, 1000, 10)
	if kw := primaryKeyword(&v); kw != "docker" {
		t.Errorf("keyword = %q, want docker from the title", kw)
	}

	v.Tags = []string{"container basics"}
	if kw := primaryKeyword(&v); kw != "container" {
		t.Errorf("keyword = %q, want container from the first tag", kw)
	}

	empty := model.Video{VideoID: "v2"}
	if kw := primaryKeyword(&empty); kw != "" {
		t.Errorf("keyword = %q, want empty", kw)
	}
}

func TestKeywordPlacement(t *testing.T) {
	if got := keywordPlacement("Docker Networking Explained", "docker"); got != 100 {
		t.Errorf("front placement = %v, want 100", got)
	}
	if got := keywordPlacement("A Very Long Introduction About Advanced Docker", "docker"); got != 60 {
		t.Errorf("late placement = %v, want 60", got)
	}
	if got := keywordPlacement("Docker Networking Explained", "kubernetes"); got != 20 {
		t.Errorf("absent keyword = %v, want 20", got)
	}
	if got := keywordPlacement("Docker Networking Explained", ""); got != 20 {
		t.Errorf("empty keyword = %v, want 20", got)
	}
}

func TestDescriptionFrontLoad(t *testing.T) {
	front := "Docker deep dive. We cover networking, volumes and compose."
	if got := descriptionFrontLoad(front, "docker"); got != 100 {
		t.Errorf("front-loaded = %v, want 100", got)
	}

	late := "In this episode we go over a lot of ground covering containers and images, how layered filesystems behave, what registries do, and then at the very end docker networking."
	if got := descriptionFrontLoad(late, "docker"); got != 50 {
		t.Errorf("buried keyword = %v, want 50", got)
	}

	if got := descriptionFrontLoad("", "docker"); got != 0 {
		t.Errorf("empty description = %v, want 0", got)
	}
}

func TestDescriptionStructure(t *testing.T) {
	full := "0:00 Intro\n2:15 Setup\nhttps://example.com/code\n#docker #tutorial"
	if got := descriptionStructure(full); !almostEqual(got, 100, 1e-9) {
		t.Errorf("all three elements = %v, want 100", got)
	}
	if got := descriptionStructure("just text"); got != 0 {
		t.Errorf("bare text = %v, want 0", got)
	}
	if got := descriptionStructure("0:00 Intro only"); !almostEqual(got, 100.0/3, 1e-9) {
		t.Errorf("timestamps only = %v, want one third", got)
	}
}

func TestScoreSEO(t *testing.T) {
	v := testVideo("v1", "Docker Tutorial for Absolute Beginners (Full Course)", 5, 1000, 10)
	v.Description = "Docker from zero: install, images, containers.\n0:00 Intro\nhttps://example.com\n#docker"

	s := &model.ChannelSnapshot{
		ChannelID: "UCtest123",
		FetchedAt: testFetchedAt,
		Videos:    []model.Video{v},
	}
	bundle := ScoreSEO(s)

	// Title: placement 100, 52 chars -> length 100, standard hook 5 -> 50.
	if !bundle.TitleEffectiveness.Valid || !almostEqual(bundle.TitleEffectiveness.Value, 85, 1e-9) {
		t.Errorf("title effectiveness = %+v, want 85", bundle.TitleEffectiveness)
	}
	// Description: front-load 100, spread (2 mentions) 100, structure 100.
	if !bundle.DescriptionQuality.Valid || !almostEqual(bundle.DescriptionQuality.Value, 100, 1e-9) {
		t.Errorf("description quality = %+v, want 100", bundle.DescriptionQuality)
	}
}

func TestScoreSEO_NoVideos(t *testing.T) {
	bundle := ScoreSEO(&model.ChannelSnapshot{FetchedAt: testFetchedAt})
	if bundle.TitleEffectiveness.Valid || bundle.DescriptionQuality.Valid {
		t.Errorf("averages over zero videos should be missing, got %+v", bundle)
	}
}
